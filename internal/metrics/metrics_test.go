package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()
	m.ProvisioningOutcomes.WithLabelValues("completed").Inc()
	m.BillingEvents.WithLabelValues("checkout.session.completed", "applied").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningOutcomes.WithLabelValues("completed")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["gym_provisioning_outcomes_total"])
	assert.True(t, names["gym_billing_events_total"])
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
