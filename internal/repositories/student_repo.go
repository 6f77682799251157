package repositories

import (
	"context"
	"fmt"

	"gymmanager/internal/models"
	"gymmanager/internal/tenancy"
)

// StudentRepository reads and writes the students table of whichever
// namespace the scope is bound to. Queries never name a schema.
type StudentRepository interface {
	Create(ctx context.Context, scope *tenancy.Scope, student *models.Student) error
	GetByID(ctx context.Context, scope *tenancy.Scope, id int64) (*models.Student, error)
	List(ctx context.Context, scope *tenancy.Scope, limit, offset int) ([]*models.Student, error)
	Update(ctx context.Context, scope *tenancy.Scope, student *models.Student) error
	Delete(ctx context.Context, scope *tenancy.Scope, id int64) error
}

type studentRepo struct{}

func NewStudentRepo() StudentRepository {
	return &studentRepo{}
}

const studentColumns = `id, foto_url, nome_completo, data_nascimento, cpf, whatsapp, nome_responsavel, contato_responsavel, dia_vencimento, receber_notificacoes, modalidade, faixa`

func scanStudent(row interface{ Scan(dest ...any) error }) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(&s.ID, &s.PhotoURL, &s.FullName, &s.BirthDate, &s.TaxID, &s.WhatsApp, &s.GuardianName,
		&s.GuardianContact, &s.DueDay, &s.ReceiveNotification, &s.Modality, &s.Belt)
	if err != nil {
		return nil, translateError(err)
	}
	return s, nil
}

func requireTenantScope(scope *tenancy.Scope) error {
	if scope == nil || scope.Namespace() == "" {
		return fmt.Errorf("%w: students require a tenant scope", tenancy.ErrInvalidNamespace)
	}
	return nil
}

func (r *studentRepo) Create(ctx context.Context, scope *tenancy.Scope, s *models.Student) error {
	if err := requireTenantScope(scope); err != nil {
		return err
	}
	query := `
		INSERT INTO students (foto_url, nome_completo, data_nascimento, cpf, whatsapp, nome_responsavel, contato_responsavel, dia_vencimento, receber_notificacoes, modalidade, faixa)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := scope.QueryRow(ctx, query, s.PhotoURL, s.FullName, s.BirthDate, s.TaxID, s.WhatsApp, s.GuardianName,
		s.GuardianContact, s.DueDay, s.ReceiveNotification, s.Modality, s.Belt).Scan(&s.ID)
	return translateError(err)
}

func (r *studentRepo) GetByID(ctx context.Context, scope *tenancy.Scope, id int64) (*models.Student, error) {
	if err := requireTenantScope(scope); err != nil {
		return nil, err
	}
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return scanStudent(scope.QueryRow(ctx, query, id))
}

func (r *studentRepo) List(ctx context.Context, scope *tenancy.Scope, limit, offset int) ([]*models.Student, error) {
	if err := requireTenantScope(scope); err != nil {
		return nil, err
	}
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY nome_completo, id LIMIT $1 OFFSET $2`
	rows, err := scope.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *studentRepo) Update(ctx context.Context, scope *tenancy.Scope, s *models.Student) error {
	if err := requireTenantScope(scope); err != nil {
		return err
	}
	query := `
		UPDATE students
		SET foto_url = $1, nome_completo = $2, data_nascimento = $3, cpf = $4, whatsapp = $5, nome_responsavel = $6,
		    contato_responsavel = $7, dia_vencimento = $8, receber_notificacoes = $9, modalidade = $10, faixa = $11
		WHERE id = $12
	`
	tag, err := scope.Exec(ctx, query, s.PhotoURL, s.FullName, s.BirthDate, s.TaxID, s.WhatsApp, s.GuardianName,
		s.GuardianContact, s.DueDay, s.ReceiveNotification, s.Modality, s.Belt, s.ID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, scope *tenancy.Scope, id int64) error {
	if err := requireTenantScope(scope); err != nil {
		return err
	}
	tag, err := scope.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
