package donor

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/transplant-api/internal/model"
	"github.com/jwalitptl/transplant-api/internal/service/audit"
	"github.com/jwalitptl/transplant-api/pkg/errors"
)

type memDonors struct {
	donors map[uuid.UUID]*model.Donor
}

func newMemDonors() *memDonors {
	return &memDonors{donors: map[uuid.UUID]*model.Donor{}}
}

func (m *memDonors) Create(_ context.Context, donor *model.Donor) error {
	m.donors[donor.ID] = donor
	return nil
}

func (m *memDonors) Get(_ context.Context, id uuid.UUID) (*model.Donor, error) {
	donor, ok := m.donors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return donor, nil
}

func (m *memDonors) Update(_ context.Context, donor *model.Donor) error {
	m.donors[donor.ID] = donor
	return nil
}

func (m *memDonors) List(_ context.Context, status model.DonorStatus) ([]*model.Donor, error) {
	var out []*model.Donor
	for _, d := range m.donors {
		if status == "" || d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type memAudit struct{ logs []*model.AuditLog }

func (m *memAudit) Create(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func (m *memAudit) List(_ context.Context, _ string, _ uuid.UUID) ([]*model.AuditLog, error) {
	return m.logs, nil
}

func (m *memAudit) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestService() (*Service, *memDonors) {
	repo := newMemDonors()
	return NewService(repo, audit.NewService(&memAudit{})), repo
}

func donorRequest(kind string, causeOfDeath *string) *model.CreateDonorRequest {
	return &model.CreateDonorRequest{
		Name:         "donor",
		DateOfBirth:  time.Date(1970, 6, 15, 0, 0, 0, 0, time.UTC),
		BloodType:    "O+",
		Kind:         kind,
		CauseOfDeath: causeOfDeath,
	}
}

func TestRegisterDeceasedDonor(t *testing.T) {
	svc, repo := newTestService()
	cause := "cerebral hemorrhage"

	donor, err := svc.Register(context.Background(), donorRequest("deceased", &cause))
	require.NoError(t, err)
	assert.Equal(t, model.DonorStatusDeceased, donor.Status)
	require.NotNil(t, donor.CauseOfDeath)
	assert.Equal(t, cause, *donor.CauseOfDeath)
	assert.Contains(t, repo.donors, donor.ID)
}

func TestRegisterDeceasedDonorWithoutCauseOfDeath(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Register(context.Background(), donorRequest("deceased", nil))
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest), "got %v", err)

	empty := ""
	_, err = svc.Register(context.Background(), donorRequest("deceased", &empty))
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest), "got %v", err)

	assert.Empty(t, repo.donors)
}

func TestRegisterLivingDonorWithCauseOfDeath(t *testing.T) {
	svc, repo := newTestService()
	cause := "n/a"

	_, err := svc.Register(context.Background(), donorRequest("living", &cause))
	assert.True(t, errors.IsCode(err, errors.ErrBadRequest), "got %v", err)
	assert.Empty(t, repo.donors)
}

func TestRegisterLivingDonor(t *testing.T) {
	svc, _ := newTestService()

	donor, err := svc.Register(context.Background(), donorRequest("living", nil))
	require.NoError(t, err)
	assert.Equal(t, model.DonorStatusActive, donor.Status)
	assert.Nil(t, donor.CauseOfDeath)
}
