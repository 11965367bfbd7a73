package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderFunc func(ctx context.Context, v catalog.Verification) error

func (f recorderFunc) Record(ctx context.Context, v catalog.Verification) error { return f(ctx, v) }

func ptr[T any](v T) *T { return &v }

var testProduct = catalog.Product{ID: "p1", Name: "AC Split 1 PK", Supplier: "daikin"}

var testInspector = Inspector{Name: "Budi", Role: "Inspector", Location: "Gudang A", Department: "QC"}

func newTestWorkspace(t *testing.T) (*Workspace, *camera.MockDevice) {
	t.Helper()
	dev := camera.NewMockDevice(64, 48)
	s := camera.NewSession(dev, camera.DefaultConfig())
	ws := NewWorkspace(testProduct, s, nil)
	t.Cleanup(func() { ws.Close() })
	return ws, dev
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    Condition
		wantErr bool
	}{
		{"new", ConditionNew, false},
		{"Like-New", ConditionLikeNew, false},
		{" good ", ConditionGood, false},
		{"fair", ConditionFair, false},
		{"poor", ConditionPoor, false},
		{"", ConditionUnset, true},
		{"broken", ConditionUnset, true},
	}
	for _, tt := range tests {
		got, err := ParseCondition(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Len(t, Conditions(), 5)
}

func TestDraft_Submittable(t *testing.T) {
	full := Draft{
		Condition:     ConditionGood,
		StockQuantity: ptr(0),
		Notes:         "ok",
		Photos:        []camera.Photo{{ID: "a"}},
	}
	assert.True(t, full.Submittable())
	assert.NoError(t, full.Validate())

	tests := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"no condition", func(d *Draft) { d.Condition = ConditionUnset }, ErrMissingCondition},
		{"no stock", func(d *Draft) { d.StockQuantity = nil }, ErrMissingStock},
		{"empty notes", func(d *Draft) { d.Notes = "" }, ErrMissingNotes},
		{"no photos", func(d *Draft) { d.Photos = nil }, ErrMissingPhotos},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.mutate(&d)
			assert.False(t, d.Submittable())
			assert.ErrorIs(t, d.Validate(), tt.want)
		})
	}

	assert.Empty(t, full.Missing())
	assert.Equal(t, []string{"condition", "stock", "notes", "photos"}, Draft{}.Missing())

	err := Draft{}.Validate()
	for _, want := range []error{ErrMissingCondition, ErrMissingStock, ErrMissingNotes, ErrMissingPhotos} {
		assert.ErrorIs(t, err, want)
	}
}

func TestWorkspace_Update(t *testing.T) {
	ws, _ := newTestWorkspace(t)

	require.NoError(t, ws.Update(Update{Condition: ptr("good"), Stock: ptr(12), Notes: ptr("dus penyok")}))
	d := ws.Draft()
	assert.Equal(t, "p1", d.ProductID)
	assert.Equal(t, "AC Split 1 PK", d.ProductName)
	assert.Equal(t, ConditionGood, d.Condition)
	require.NotNil(t, d.StockQuantity)
	assert.Equal(t, 12, *d.StockQuantity)
	assert.Equal(t, "dus penyok", d.Notes)

	// Bad values leave every field untouched.
	assert.ErrorIs(t, ws.Update(Update{Condition: ptr("shiny"), Notes: ptr("x")}), ErrUnknownCondition)
	assert.ErrorIs(t, ws.Update(Update{Stock: ptr(-1), Notes: ptr("x")}), ErrNegativeStock)
	assert.Equal(t, "dus penyok", ws.Draft().Notes)

	// Nil fields are left alone.
	require.NoError(t, ws.Update(Update{Notes: ptr("")}))
	d = ws.Draft()
	assert.Equal(t, ConditionGood, d.Condition)
	assert.Empty(t, d.Notes)
}

func TestWorkspace_DraftIncludesPhotos(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	ctx := context.Background()

	require.NoError(t, ws.Session().RequestStream(ctx, camera.FacingBack))
	_, err := ws.Session().Capture()
	require.NoError(t, err)

	assert.Len(t, ws.Draft().Photos, 1)
}

func TestWorkspace_Submit(t *testing.T) {
	ws, dev := newTestWorkspace(t)
	ctx := context.Background()

	require.NoError(t, ws.Session().RequestStream(ctx, camera.FacingBack))
	_, err := ws.Session().Capture()
	require.NoError(t, err)
	_, err = ws.Session().Capture()
	require.NoError(t, err)
	require.NoError(t, ws.Update(Update{Condition: ptr("like-new"), Stock: ptr(7), Notes: ptr("segel utuh")}))

	var got []catalog.Verification
	rec := recorderFunc(func(_ context.Context, v catalog.Verification) error {
		got = append(got, v)
		return nil
	})

	v, err := ws.Submit(ctx, rec, testInspector)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, v, got[0])

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "p1", v.ProductID)
	assert.Equal(t, "like-new", v.Condition)
	assert.Equal(t, 7, v.Stock)
	assert.True(t, v.Verified)
	assert.Equal(t, "Budi", v.Verifier.Name)
	assert.Equal(t, "Gudang A", v.Location)
	require.Len(t, v.Photos, 2)
	assert.Contains(t, v.Photos[0], "data:image/jpeg;base64,")

	// Submitting releases the camera.
	assert.True(t, ws.Closed())
	assert.Equal(t, 0, dev.Open())
	assert.Equal(t, camera.StateClosed, ws.Session().Status().State)

	_, err = ws.Submit(ctx, rec, testInspector)
	assert.ErrorIs(t, err, ErrNotSubmittable)
	assert.Len(t, got, 1)
}

func TestWorkspace_SubmitIncomplete(t *testing.T) {
	ws, _ := newTestWorkspace(t)
	require.NoError(t, ws.Update(Update{Condition: ptr("fair")}))

	called := false
	rec := recorderFunc(func(context.Context, catalog.Verification) error {
		called = true
		return nil
	})

	_, err := ws.Submit(context.Background(), rec, testInspector)
	assert.ErrorIs(t, err, ErrNotSubmittable)
	assert.ErrorIs(t, err, ErrMissingPhotos)
	assert.ErrorIs(t, err, ErrMissingStock)
	assert.NotErrorIs(t, err, ErrMissingCondition)
	assert.False(t, called)
	assert.False(t, ws.Closed())
}

func TestWorkspace_SubmitRecordError(t *testing.T) {
	ws, dev := newTestWorkspace(t)
	ctx := context.Background()

	require.NoError(t, ws.Session().RequestStream(ctx, camera.FacingFront))
	_, err := ws.Session().Capture()
	require.NoError(t, err)
	require.NoError(t, ws.Update(Update{Condition: ptr("poor"), Stock: ptr(1), Notes: ptr("rusak")}))

	boom := errors.New("disk full")
	_, err = ws.Submit(ctx, recorderFunc(func(context.Context, catalog.Verification) error { return boom }), testInspector)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, dev.Open())
}

func TestWorkspace_CloseHooks(t *testing.T) {
	ws, _ := newTestWorkspace(t)

	var n int
	ws.OnClose(func() { n++ })
	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, ws.Update(Update{Notes: ptr("late")}), camera.ErrSessionClosed)

	done := make(chan struct{})
	ws.OnClose(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hook registered after close did not run")
	}
}

func TestRegistry_OpenGetClose(t *testing.T) {
	dev := camera.NewMockDevice(32, 32)
	r := NewRegistry(dev, camera.NewManager(camera.DefaultConfig()), RegistryConfig{}, nil)
	defer r.CloseAll()

	ws := r.Open(testProduct)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "mock", r.Backend())

	got, err := r.Get(ws.ID())
	require.NoError(t, err)
	assert.Same(t, ws, got)

	require.NoError(t, ws.Session().RequestStream(context.Background(), camera.FacingBack))
	assert.Equal(t, 1, dev.Open())

	r.Close(ws.ID())
	assert.Equal(t, 0, dev.Open())
	assert.True(t, ws.Closed())
	assert.Equal(t, 0, r.Len())

	_, err = r.Get(ws.ID())
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)

	r.Close("nope")
}

func TestRegistry_SubmittedWorkspaceIsGone(t *testing.T) {
	r := NewRegistry(camera.NewMockDevice(8, 8), camera.NewManager(camera.DefaultConfig()), RegistryConfig{}, nil)
	defer r.CloseAll()

	ws := r.Open(testProduct)
	require.NoError(t, ws.Close())

	_, err := r.Get(ws.ID())
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestRegistry_EvictsLeastRecentlyUsed(t *testing.T) {
	dev := camera.NewMockDevice(8, 8)
	r := NewRegistry(dev, camera.NewManager(camera.DefaultConfig()), RegistryConfig{MaxOpen: 2}, nil)
	defer r.CloseAll()
	ctx := context.Background()

	a := r.Open(testProduct)
	require.NoError(t, a.Session().RequestStream(ctx, camera.FacingBack))
	b := r.Open(testProduct)
	c := r.Open(testProduct)

	assert.Equal(t, 2, r.Len())
	assert.True(t, a.Closed())
	assert.False(t, b.Closed())
	assert.False(t, c.Closed())
	assert.Equal(t, 0, dev.Open())
}

func TestRegistry_IdleExpiry(t *testing.T) {
	dev := camera.NewMockDevice(8, 8)
	r := NewRegistry(dev, camera.NewManager(camera.DefaultConfig()), RegistryConfig{IdleTTL: 50 * time.Millisecond}, nil)
	defer r.CloseAll()

	ws := r.Open(testProduct)
	require.NoError(t, ws.Session().RequestStream(context.Background(), camera.FacingBack))

	assert.Eventually(t, func() bool {
		_, err := r.Get(ws.ID())
		return errors.Is(err, ErrWorkspaceNotFound)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, ws.Closed, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return dev.Open() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRegistry_CloseAll(t *testing.T) {
	dev := camera.NewMockDevice(8, 8)
	r := NewRegistry(dev, camera.NewManager(camera.DefaultConfig()), RegistryConfig{}, nil)
	ctx := context.Background()

	var wss []*Workspace
	for range 3 {
		ws := r.Open(testProduct)
		wss = append(wss, ws)
	}
	require.NoError(t, wss[0].Session().RequestStream(ctx, camera.FacingBack))

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, dev.Open())
	for _, ws := range wss {
		assert.True(t, ws.Closed())
	}
}

func TestRegistry_ConcurrentOpen(t *testing.T) {
	r := NewRegistry(camera.NewMockDevice(8, 8), camera.NewManager(camera.DefaultConfig()), RegistryConfig{MaxOpen: 4}, nil)
	defer r.CloseAll()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws := r.Open(testProduct)
			_, _ = r.Get(ws.ID())
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, r.Len(), 4)
}

func TestRegistry_NewConfigAppliesToNewWorkspaces(t *testing.T) {
	dev := camera.NewMockDevice(8, 8)
	cams := camera.NewManager(camera.DefaultConfig())
	r := NewRegistry(dev, cams, RegistryConfig{}, nil)
	defer r.CloseAll()
	ctx := context.Background()

	a := r.Open(testProduct)
	require.NoError(t, cams.UpdateConfig(map[string]any{"max_photos": 1}))
	b := r.Open(testProduct)
	assert.Same(t, cams, r.Camera())

	for _, ws := range []*Workspace{a, b} {
		require.NoError(t, ws.Session().RequestStream(ctx, camera.FacingBack))
		_, err := ws.Session().Capture()
		require.NoError(t, err)
	}
	_, err := a.Session().Capture()
	assert.NoError(t, err)
	_, err = b.Session().Capture()
	assert.ErrorIs(t, err, camera.ErrPhotoLimit)
}

func TestRegistry_ClosedWorkspaceFreesItsSlot(t *testing.T) {
	r := NewRegistry(camera.NewMockDevice(8, 8), camera.NewManager(camera.DefaultConfig()), RegistryConfig{MaxOpen: 2}, nil)
	defer r.CloseAll()

	a := r.Open(testProduct)
	b := r.Open(testProduct)
	require.NoError(t, a.Close())

	_, err := r.Get(a.ID())
	require.ErrorIs(t, err, ErrWorkspaceNotFound)
	assert.Equal(t, 1, r.Len())

	c := r.Open(testProduct)
	assert.False(t, b.Closed())
	assert.False(t, c.Closed())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_ConfigReachesDevice(t *testing.T) {
	dev := camera.NewMockDevice(1280, 720)
	cams := camera.NewManager(camera.DefaultConfig())
	r := NewRegistry(dev, cams, RegistryConfig{}, nil)
	defer r.CloseAll()
	ctx := context.Background()

	before := r.Open(testProduct)
	require.NoError(t, cams.UpdateConfig(map[string]any{
		"width":            320,
		"height":           240,
		"framerate":        15,
		"preview_interval": "500ms",
	}))
	after := r.Open(testProduct)
	assert.Equal(t, 500*time.Millisecond, after.Session().Config().PreviewInterval)

	require.NoError(t, after.Session().RequestStream(ctx, camera.FacingBack))
	p, err := after.Session().Capture()
	require.NoError(t, err)
	assert.Equal(t, 320, p.Width)
	assert.Equal(t, 240, p.Height)

	calls := dev.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, camera.Request{
		Facing:    camera.FacingBack,
		Device:    camera.DefaultConfig().BackDevice,
		Width:     320,
		Height:    240,
		Framerate: 15,
	}, calls[0].Request)

	require.NoError(t, before.Session().RequestStream(ctx, camera.FacingBack))
	st := before.Session().Status()
	assert.Equal(t, 1280, st.Width)
	assert.Equal(t, 720, st.Height)
}
