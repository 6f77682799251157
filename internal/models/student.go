package models

import "time"

// Student lives in the tenant's own namespace; there is no tenant column.
type Student struct {
	ID                  int64     `json:"id" db:"id"`
	PhotoURL            *string   `json:"foto_url" db:"foto_url"`
	FullName            string    `json:"nome_completo" db:"nome_completo"`
	BirthDate           time.Time `json:"data_nascimento" db:"data_nascimento"`
	TaxID               *string   `json:"cpf" db:"cpf"`
	WhatsApp            string    `json:"whatsapp" db:"whatsapp"`
	GuardianName        *string   `json:"nome_responsavel" db:"nome_responsavel"`
	GuardianContact     *string   `json:"contato_responsavel" db:"contato_responsavel"`
	DueDay              int       `json:"dia_vencimento" db:"dia_vencimento"`
	ReceiveNotification bool      `json:"receber_notificacoes" db:"receber_notificacoes"`
	Modality            *string   `json:"modalidade" db:"modalidade"`
	Belt                *string   `json:"faixa" db:"faixa"`
}

// StudentPatch carries a partial update. A nil field is left untouched.
type StudentPatch struct {
	FullName            *string    `json:"nome_completo"`
	BirthDate           *time.Time `json:"-"`
	TaxID               *string    `json:"cpf"`
	WhatsApp            *string    `json:"whatsapp"`
	GuardianName        *string    `json:"nome_responsavel"`
	GuardianContact     *string    `json:"contato_responsavel"`
	DueDay              *int       `json:"dia_vencimento"`
	ReceiveNotification *bool      `json:"receber_notificacoes"`
	Modality            *string    `json:"modalidade"`
	Belt                *string    `json:"faixa"`
	PhotoURL            *string    `json:"foto_url"`
}

// Apply copies every present field of p onto s.
func (p *StudentPatch) Apply(s *Student) {
	if p.FullName != nil {
		s.FullName = *p.FullName
	}
	if p.BirthDate != nil {
		s.BirthDate = *p.BirthDate
	}
	if p.TaxID != nil {
		s.TaxID = p.TaxID
	}
	if p.WhatsApp != nil {
		s.WhatsApp = *p.WhatsApp
	}
	if p.GuardianName != nil {
		s.GuardianName = p.GuardianName
	}
	if p.GuardianContact != nil {
		s.GuardianContact = p.GuardianContact
	}
	if p.DueDay != nil {
		s.DueDay = *p.DueDay
	}
	if p.ReceiveNotification != nil {
		s.ReceiveNotification = *p.ReceiveNotification
	}
	if p.Modality != nil {
		s.Modality = p.Modality
	}
	if p.Belt != nil {
		s.Belt = p.Belt
	}
	if p.PhotoURL != nil {
		s.PhotoURL = p.PhotoURL
	}
}

// Empty reports whether the patch carries no field at all.
func (p *StudentPatch) Empty() bool {
	return p.FullName == nil && p.BirthDate == nil && p.TaxID == nil && p.WhatsApp == nil &&
		p.GuardianName == nil && p.GuardianContact == nil && p.DueDay == nil &&
		p.ReceiveNotification == nil && p.Modality == nil && p.Belt == nil && p.PhotoURL == nil
}
