package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/Yata-no-Kagami/app/dto"
	"github.com/amirphl/Yata-no-Kagami/models"
	"github.com/amirphl/Yata-no-Kagami/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type versionFixture struct {
	codeRepo    *fakeCodeRepo
	versionRepo *fakeVersionRepo
	testRepo    *fakeTestRepo
	flow        ContentVersionFlow

	code *models.QRCode
}

func newVersionFixture(t *testing.T) *versionFixture {
	t.Helper()
	f := &versionFixture{
		codeRepo:    newFakeCodeRepo(),
		versionRepo: newFakeVersionRepo(),
		testRepo:    newFakeTestRepo(),
	}
	f.flow = NewContentVersionFlow(f.codeRepo, f.versionRepo, f.testRepo, NewResolutionCache(nil, 0), nil)

	f.code = &models.QRCode{UID: "card-01"}
	require.NoError(t, f.codeRepo.Save(context.Background(), f.code))
	return f
}

func (f *versionFixture) create(t *testing.T, content string, active bool) *dto.ContentVersionResponse {
	t.Helper()
	resp, err := f.flow.Create(context.Background(), &dto.CreateContentVersionRequest{
		CodeUID:  f.code.UID,
		Content:  []byte(content),
		IsActive: utils.ToPtr(active),
	})
	require.NoError(t, err)
	return resp
}

func TestContentVersionCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("InactiveByDefault", func(t *testing.T) {
		f := newVersionFixture(t)
		resp, err := f.flow.Create(ctx, &dto.CreateContentVersionRequest{
			CodeUID: f.code.UID,
			Content: []byte(`{"url": "https://v1.example.com"}`),
		})
		require.NoError(t, err)
		assert.False(t, resp.IsActive)
		assert.Equal(t, f.code.UID, resp.CodeUID)
	})

	t.Run("EmptyContentRejected", func(t *testing.T) {
		f := newVersionFixture(t)
		for _, content := range []string{``, `null`, `""`, `{}`} {
			_, err := f.flow.Create(ctx, &dto.CreateContentVersionRequest{
				CodeUID: f.code.UID,
				Content: []byte(content),
			})
			require.Error(t, err, "content %q", content)
			assert.True(t, IsValidationError(err))
			assert.True(t, IsContentRequired(err))
		}
	})

	t.Run("UnknownCodeRejected", func(t *testing.T) {
		f := newVersionFixture(t)
		_, err := f.flow.Create(ctx, &dto.CreateContentVersionRequest{
			CodeUID: "missing",
			Content: []byte(`"https://x.example.com"`),
		})
		require.Error(t, err)
		assert.True(t, IsCodeNotFound(err))
	})

	t.Run("ActiveCreateDeactivatesSiblings", func(t *testing.T) {
		f := newVersionFixture(t)
		f.create(t, `"https://v1.example.com"`, true)
		f.create(t, `"https://v2.example.com"`, true)
		latest := f.create(t, `"https://v3.example.com"`, true)

		assert.Equal(t, 1, f.versionRepo.activeCount(f.code.ID))
		active, err := f.versionRepo.GetActiveByCode(ctx, f.code.ID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, latest.UUID, active.UUID.String())
	})
}

func TestContentVersionActivation(t *testing.T) {
	ctx := context.Background()

	t.Run("ActivateMovesTheFlag", func(t *testing.T) {
		f := newVersionFixture(t)
		v1 := f.create(t, `"https://v1.example.com"`, true)
		v2 := f.create(t, `"https://v2.example.com"`, false)

		require.NoError(t, f.flow.Activate(ctx, v2.UUID))

		assert.Equal(t, 1, f.versionRepo.activeCount(f.code.ID))
		active, err := f.flow.GetActive(ctx, f.code.UID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, v2.UUID, active.UUID.String())
		assert.NotEqual(t, v1.UUID, active.UUID.String())
	})

	t.Run("DeactivateLeavesNoActiveVersion", func(t *testing.T) {
		f := newVersionFixture(t)
		v1 := f.create(t, `"https://v1.example.com"`, true)

		require.NoError(t, f.flow.Deactivate(ctx, v1.UUID))

		active, err := f.flow.GetActive(ctx, f.code.UID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("ActivateUnknownVersion", func(t *testing.T) {
		f := newVersionFixture(t)
		err := f.flow.Activate(ctx, "8f14e45f-ceea-467f-a8f9-111111111111")
		require.Error(t, err)
		assert.True(t, IsVersionNotFound(err))
	})

	t.Run("MalformedUUID", func(t *testing.T) {
		f := newVersionFixture(t)
		err := f.flow.Activate(ctx, "not-a-uuid")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestContentVersionDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("BlockedWhileRunningTestReferencesIt", func(t *testing.T) {
		f := newVersionFixture(t)
		v1 := f.create(t, `"https://v1.example.com"`, true)
		v2 := f.create(t, `"https://v2.example.com"`, false)

		test := &models.ABTest{
			CodeID:       f.code.ID,
			TestName:     "t",
			VariantAID:   1,
			VariantBID:   2,
			TrafficSplit: 50,
			Status:       models.ABTestStatusRunning,
		}
		require.NoError(t, f.testRepo.Save(ctx, test))

		err := f.flow.Delete(ctx, v2.UUID)
		require.Error(t, err)
		assert.True(t, IsBusinessError(err))
		assert.True(t, IsVersionReferencedByTest(err))

		// Pausing the test releases both variants
		test.Status = models.ABTestStatusPaused
		require.NoError(t, f.flow.Delete(ctx, v2.UUID))
		require.NoError(t, f.flow.Delete(ctx, v1.UUID))
	})

	t.Run("DeleteRemovesTheVersion", func(t *testing.T) {
		f := newVersionFixture(t)
		v1 := f.create(t, `"https://v1.example.com"`, false)
		require.NoError(t, f.flow.Delete(ctx, v1.UUID))

		err := f.flow.Delete(ctx, v1.UUID)
		require.Error(t, err)
		assert.True(t, IsVersionNotFound(err))
	})
}

func TestContentVersionList(t *testing.T) {
	ctx := context.Background()
	f := newVersionFixture(t)
	f.create(t, `"https://v1.example.com"`, false)
	f.create(t, `"https://v2.example.com"`, false)
	v3 := f.create(t, `"https://v3.example.com"`, true)

	resp, err := f.flow.List(ctx, f.code.UID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Items, 3)
	// Newest first
	assert.Equal(t, v3.UUID, resp.Items[0].UUID)
	assert.True(t, resp.Items[0].IsActive)
	assert.False(t, resp.Items[1].IsActive)
}
