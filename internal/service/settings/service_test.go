package settings

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/pkg/ctxutil"
)

var adminID = uuid.MustParse("ad000000-0000-4000-8000-000000000001")

type storeMock struct {
	SetFunc func(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error
	calls   []map[string]any
}

func (m *storeMock) Set(ctx context.Context, ref docstore.Ref, fields map[string]any, merge bool) error {
	m.calls = append(m.calls, fields)
	return m.SetFunc(ctx, ref, fields, merge)
}

type fakeDoc struct {
	record *domain.Settings
}

func (f *fakeDoc) State() mirror.DocState[domain.Settings] {
	return mirror.DocState[domain.Settings]{Record: f.record}
}

var fallback = domain.Settings{FollowUpOptions: []string{"none", "5"}, DefaultFollowUp: "5"}

func adminCtx() context.Context {
	return ctxutil.WithPrincipal(context.Background(), domain.Principal{ID: adminID, Role: domain.RoleAdmin})
}

func TestGet_FallsBackUntilDocumentExists(t *testing.T) {
	t.Parallel()

	doc := &fakeDoc{}
	svc := NewService(slog.Default(), &storeMock{}, doc, fallback)

	assert.Equal(t, "5", svc.DefaultFollowUp())
	assert.Equal(t, domain.SettingsFollowUpID, svc.Get().ID)

	doc.record = &domain.Settings{ID: "followup", FollowUpOptions: []string{"3,10"}, DefaultFollowUp: "3,10"}
	assert.Equal(t, "3,10", svc.DefaultFollowUp())
}

func TestUpdate_AdminOnly(t *testing.T) {
	t.Parallel()

	store := &storeMock{}
	svc := NewService(slog.Default(), store, &fakeDoc{}, fallback)
	ctx := ctxutil.WithPrincipal(context.Background(), domain.Principal{ID: uuid.New(), Role: domain.RoleSeller})

	_, err := svc.Update(ctx, UpdateInput{FollowUpOptions: []string{"5"}, DefaultFollowUp: "5"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, store.calls)

	_, err = svc.Update(context.Background(), UpdateInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUpdate_ValidatesSpecs(t *testing.T) {
	t.Parallel()

	store := &storeMock{}
	svc := NewService(slog.Default(), store, &fakeDoc{}, fallback)

	_, err := svc.Update(adminCtx(), UpdateInput{FollowUpOptions: []string{"5", "10,2"}, DefaultFollowUp: "7"})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
	assert.Empty(t, store.calls)
}

func TestUpdate_MergesDocument(t *testing.T) {
	t.Parallel()

	var gotRef docstore.Ref
	var gotMerge bool
	store := &storeMock{SetFunc: func(_ context.Context, ref docstore.Ref, _ map[string]any, merge bool) error {
		gotRef, gotMerge = ref, merge
		return nil
	}}
	svc := NewService(slog.Default(), store, &fakeDoc{}, fallback)

	got, err := svc.Update(adminCtx(), UpdateInput{FollowUpOptions: []string{" none ", "5,15,30"}, DefaultFollowUp: "5,15,30"})
	require.NoError(t, err)

	assert.Equal(t, Ref, gotRef)
	assert.True(t, gotMerge)
	assert.Equal(t, []string{"none", "5,15,30"}, got.FollowUpOptions)
	assert.Equal(t, adminID.String(), store.calls[0][domain.SettingsFieldUpdatedBy])
}

func TestUpdate_WriteError(t *testing.T) {
	t.Parallel()

	store := &storeMock{SetFunc: func(context.Context, docstore.Ref, map[string]any, bool) error {
		return errors.New("read-only")
	}}
	svc := NewService(slog.Default(), store, &fakeDoc{}, fallback)

	_, err := svc.Update(adminCtx(), UpdateInput{FollowUpOptions: []string{"5"}, DefaultFollowUp: "5"})
	assert.ErrorIs(t, err, domain.ErrWrite)
}
