package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/stats/repository"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
	"github.com/hcdash/hcdash-backend/pkg/testutil"
)

// fakeRepo keeps records keyed by metric and natural key, so upserts overwrite
type fakeRepo struct {
	rows       map[string]map[string]*domain.Record
	lastFilter repository.Filter
	carried    []int
	upsertAll  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string]map[string]*domain.Record{}}
}

func (f *fakeRepo) List(_ context.Context, m *domain.Metric, flt repository.Filter) ([]*domain.Record, error) {
	f.lastFilter = flt
	out := []*domain.Record{}
	for _, rec := range f.rows[m.Slug] {
		if flt.CompanyID != "" && rec.CompanyID != flt.CompanyID {
			continue
		}
		if flt.Year != 0 && rec.Year != flt.Year {
			continue
		}
		if flt.Month != 0 && rec.Month != flt.Month {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeRepo) ListMany(ctx context.Context, metrics []*domain.Metric, flt repository.Filter) (map[string][]*domain.Record, error) {
	out := map[string][]*domain.Record{}
	for _, m := range metrics {
		out[m.Slug], _ = f.List(ctx, m, flt)
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, m *domain.Metric, id string) (*domain.Record, error) {
	for _, rec := range f.rows[m.Slug] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, apperrors.NotFound("record")
}

func (f *fakeRepo) Upsert(_ context.Context, rec *domain.Record) error {
	slug := rec.Metric().Slug
	if f.rows[slug] == nil {
		f.rows[slug] = map[string]*domain.Record{}
	}
	if existing, ok := f.rows[slug][rec.Key()]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = rec.Key()
	}
	f.rows[slug][rec.Key()] = rec
	return nil
}

func (f *fakeRepo) UpsertAll(ctx context.Context, records []*domain.Record) error {
	f.upsertAll++
	for _, rec := range records {
		if err := f.Upsert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, m *domain.Metric, id, companyID string) error {
	for key, rec := range f.rows[m.Slug] {
		if rec.ID == id && (companyID == "" || rec.CompanyID == companyID) {
			delete(f.rows[m.Slug], key)
			return nil
		}
	}
	return apperrors.NotFound("record")
}

func (f *fakeRepo) CarryOver(_ context.Context, _ *domain.Metric, _ string, _, month int) (int64, error) {
	f.carried = append(f.carried, month)
	return 2, nil
}

func newService() (*StatsService, *fakeRepo, *testutil.MockPublisher) {
	repo := newFakeRepo()
	pub := testutil.NewMockPublisher()
	return NewStatsService(domain.DefaultRegistry(), repo, pub, logger.Nop()), repo, pub
}

func body(t *testing.T, v interface{}) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestStatsService_Upsert_SecondCallOverwrites(t *testing.T) {
	svc, repo, pub := newService()
	ctx := testutil.SessionContext(tenant.RoleUserAnper)

	_, err := svc.Upsert(ctx, "age", body(t, map[string]interface{}{"year": 2025, "month": 1, "under_25_count": 10}))
	require.NoError(t, err)
	rec, err := svc.Upsert(ctx, "age", body(t, map[string]interface{}{"year": 2025, "month": 1, "under_25_count": 12}))
	require.NoError(t, err)

	require.Len(t, repo.rows["age"], 1)
	assert.Equal(t, testutil.CompanyAID, rec.CompanyID)
	assert.Equal(t, int64(12), repo.rows["age"][rec.Key()].Values["under_25_count"].IntPart())
	assert.Len(t, pub.Events(messaging.EventStatUpserted), 2)
}

func TestStatsService_Upsert_ForeignCompanyForbidden(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Upsert(testutil.SessionContext(tenant.RoleUserAnper), "headcount", body(t, map[string]interface{}{
		"year": 2025, "month": 1, "companyId": testutil.CompanyBID, "male_count": 1,
	}))
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
	assert.Empty(t, repo.rows)
}

func TestStatsService_Upsert_HoldingWritesAnyCompany(t *testing.T) {
	svc, _, _ := newService()

	rec, err := svc.Upsert(testutil.SessionContext(tenant.RoleAdminHolding), "headcount", body(t, map[string]interface{}{
		"year": 2025, "month": 1, "companyId": testutil.CompanyBID, "male_count": 3, "female_count": 4,
	}))
	require.NoError(t, err)
	assert.Equal(t, testutil.CompanyBID, rec.CompanyID)
	assert.Equal(t, int64(7), rec.Values["total_count"].IntPart())
}

func TestStatsService_Upsert_Validation(t *testing.T) {
	svc, _, _ := newService()

	_, err := svc.Upsert(testutil.SessionContext(tenant.RoleSuperAdmin), "age", body(t, map[string]interface{}{"year": 2025}))
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Details, "month")
}

func TestStatsService_Upsert_OutOfRangeIsValidationError(t *testing.T) {
	svc, repo, _ := newService()
	ctx := testutil.SessionContext(tenant.RoleSuperAdmin)

	for _, v := range []interface{}{int64(3000000000), "1e12"} {
		_, err := svc.Upsert(ctx, "age", body(t, map[string]interface{}{"year": 2025, "month": 1, "under_25_count": v}))
		var appErr *apperrors.AppError
		require.True(t, apperrors.As(err, &appErr), "value %v", v)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Contains(t, appErr.Details, "under_25_count")
	}
	assert.Empty(t, repo.rows)
}

func TestStatsService_UnknownMetric(t *testing.T) {
	svc, _, _ := newService()

	_, _, err := svc.List(testutil.SessionContext(tenant.RoleSuperAdmin), "nope", ListQuery{})
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))
}

func TestStatsService_List_ScopesUserAnper(t *testing.T) {
	svc, repo, _ := newService()

	_, companyID, err := svc.List(testutil.SessionContext(tenant.RoleUserAnper), "age", ListQuery{Year: 2025, CompanyID: testutil.CompanyBID})
	require.NoError(t, err)
	assert.Equal(t, testutil.CompanyAID, companyID)
	assert.Equal(t, testutil.CompanyAID, repo.lastFilter.CompanyID)

	_, _, err = svc.List(context.Background(), "age", ListQuery{})
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusCode(err))
}

func TestStatsService_List_CarryOver(t *testing.T) {
	svc, repo, pub := newService()
	ctx := testutil.SessionContext(tenant.RoleAdminHolding)

	_, _, err := svc.List(ctx, "division", ListQuery{Year: 2025, Month: 1})
	require.NoError(t, err)
	_, _, err = svc.List(ctx, "division", ListQuery{Year: 2025, Month: 4})
	require.NoError(t, err)
	_, _, err = svc.List(ctx, "headcount", ListQuery{Year: 2025, Month: 4})
	require.NoError(t, err)

	assert.Equal(t, []int{4}, repo.carried)
	events := pub.Events(messaging.EventStatsCarriedOver)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].(messaging.CarryOverEvent).Copied)
}

func TestStatsService_Delete(t *testing.T) {
	svc, repo, pub := newService()
	holding := testutil.SessionContext(tenant.RoleAdminHolding)

	rec, err := svc.Upsert(holding, "division", body(t, map[string]interface{}{
		"year": 2025, "month": 2, "companyId": testutil.CompanyBID, "division_name": "Finance", "planned_count": 4,
	}))
	require.NoError(t, err)

	err = svc.Delete(testutil.SessionContext(tenant.RoleUserAnper), "division", rec.ID)
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))

	require.NoError(t, svc.Delete(holding, "division", rec.ID))
	assert.Empty(t, repo.rows["division"])
	pub.AssertEventPublished(t, messaging.EventStatDeleted)

	err = svc.Delete(holding, "division", rec.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))

	err = svc.Delete(holding, "age", "whatever")
	assert.Equal(t, http.StatusMethodNotAllowed, apperrors.StatusCode(err))
}

func TestStatsService_Demography(t *testing.T) {
	svc, repo, _ := newService()
	ctx := testutil.SessionContext(tenant.RoleUserAnper)

	saved, err := svc.SaveDemography(ctx, body(t, map[string]interface{}{
		"year":      2025,
		"month":     6,
		"headcount": map[string]interface{}{"male_count": 60, "female_count": 40},
		"age":       map[string]interface{}{"under_25_count": 10, "age_26_40_count": 50},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upsertAll)
	assert.Equal(t, int64(100), saved.Sections["headcount"].Values["total_count"].IntPart())

	got, err := svc.GetDemography(ctx, DemographyQuery{Year: 2025, Month: 6})
	require.NoError(t, err)
	assert.NotNil(t, got.Sections["headcount"])
	assert.NotNil(t, got.Sections["age"])
	assert.Nil(t, got.Sections["education"])
	assert.Contains(t, got.Sections, "length_of_service")
}

func TestStatsService_Demography_Errors(t *testing.T) {
	svc, repo, _ := newService()
	ctx := testutil.SessionContext(tenant.RoleUserAnper)

	_, err := svc.SaveDemography(ctx, body(t, map[string]interface{}{"year": 2025, "month": 6}))
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))

	_, err = svc.SaveDemography(ctx, body(t, map[string]interface{}{
		"year": 2025, "month": 6,
		"headcount": map[string]interface{}{"male_count": -1},
		"age":       map[string]interface{}{"under_25_count": 1},
	}))
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Contains(t, appErr.Details, "headcount.male_count")
	assert.Zero(t, repo.upsertAll)

	_, err = svc.GetDemography(ctx, DemographyQuery{Year: 2025})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusCode(err))
}
