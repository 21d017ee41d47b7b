// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/linkpulse/linkpulse/app/dto"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	testingutil "github.com/linkpulse/linkpulse/testing"
	"github.com/linkpulse/linkpulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkFlow(testDB *testingutil.TestDB) businessflow.LinkFlow {
	return businessflow.NewLinkFlow(
		testDB.DB,
		repository.NewLinkRepository(testDB.DB),
		repository.NewLinkClickRepository(testDB.DB),
		repository.NewPlatformClickRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		nil,
		&config.CacheConfig{},
		"https://lp.test",
	)
}

func createLinkRequest(title string) *dto.CreateLinkRequest {
	return &dto.CreateLinkRequest{
		URL:   "https://example.com/landing",
		Title: title,
	}
}

func TestLinkFlowCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLinkFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.10", "test-agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("GeneratesTrackingID", func(t *testing.T) {
			link, err := flow.CreateLink(ctx, user.ID, createLinkRequest("Landing"), metadata)
			require.NoError(t, err)
			assert.Len(t, link.TrackingID, utils.TrackingIDLength)
			assert.Equal(t, "https://lp.test/links/l/"+link.TrackingID, link.ShortURL)
			assert.Zero(t, link.TotalClicks)
		})

		t.Run("CustomAliasPreferredInShortURL", func(t *testing.T) {
			req := createLinkRequest("Aliased")
			req.CustomAlias = utils.ToPtr("summer-promo")

			link, err := flow.CreateLink(ctx, user.ID, req, metadata)
			require.NoError(t, err)
			require.NotNil(t, link.CustomAlias)
			assert.Equal(t, "https://lp.test/links/l/summer-promo", link.ShortURL)
		})

		t.Run("AliasTakenAcrossNamespaces", func(t *testing.T) {
			req := createLinkRequest("Duplicate")
			req.CustomAlias = utils.ToPtr("summer-promo")
			_, err := flow.CreateLink(ctx, user.ID, req, metadata)
			assert.True(t, businessflow.IsAliasTaken(err))

			// An alias colliding with an existing tracking id is also rejected
			existing, err := flow.CreateLink(ctx, user.ID, createLinkRequest("Existing"), metadata)
			require.NoError(t, err)
			req2 := createLinkRequest("Collision")
			req2.CustomAlias = &existing.TrackingID
			_, err = flow.CreateLink(ctx, user.ID, req2, metadata)
			assert.True(t, businessflow.IsAliasTaken(err))
		})

		t.Run("AliasFormatRejected", func(t *testing.T) {
			req := createLinkRequest("Bad Alias")
			req.CustomAlias = utils.ToPtr("no spaces!")
			_, err := flow.CreateLink(ctx, user.ID, req, metadata)
			assert.True(t, businessflow.IsAliasInvalid(err))
		})

		t.Run("RejectsNonHTTPURL", func(t *testing.T) {
			req := createLinkRequest("FTP")
			req.URL = "ftp://example.com/file"
			_, err := flow.CreateLink(ctx, user.ID, req, metadata)
			assert.True(t, businessflow.IsInvalidURL(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestLinkFlowABTest(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLinkFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.10", "test-agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		variants, err := flow.CreateABTest(ctx, user.ID, &dto.CreateABTestRequest{
			Variants: []dto.CreateLinkRequest{
				*createLinkRequest("Variant A"),
				*createLinkRequest("Variant B"),
				*createLinkRequest("Variant C"),
			},
		}, metadata)
		require.NoError(t, err)
		require.Len(t, variants, 3)

		// All variants share one group id and have distinct tracking ids
		groupID := variants[0].GroupID
		require.NotNil(t, groupID)
		seen := map[string]bool{}
		for _, v := range variants {
			require.NotNil(t, v.GroupID)
			assert.Equal(t, *groupID, *v.GroupID)
			assert.False(t, seen[v.TrackingID], "tracking id reused")
			seen[v.TrackingID] = true
		}

		return nil
	})
	require.NoError(t, err)
}

func TestLinkFlowOwnershipAndLifecycle(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newLinkFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.10", "test-agent")

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		link, err := flow.CreateLink(ctx, owner.ID, createLinkRequest("Mine"), metadata)
		require.NoError(t, err)

		t.Run("StrangerCannotRead", func(t *testing.T) {
			_, err := flow.GetLink(ctx, stranger.ID, link.ID)
			assert.Error(t, err)
		})

		t.Run("Update", func(t *testing.T) {
			updated, err := flow.UpdateLink(ctx, owner.ID, link.ID, &dto.UpdateLinkRequest{
				Title: utils.ToPtr("Renamed"),
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Renamed", updated.Title)
			assert.Equal(t, link.TrackingID, updated.TrackingID)
		})

		t.Run("DeleteRemovesClicks", func(t *testing.T) {
			_, err := fixtures.CreateTestClick(link.ID, models.PlatformFacebook)
			require.NoError(t, err)

			require.NoError(t, flow.DeleteLink(ctx, owner.ID, link.ID, metadata))

			_, err = flow.GetLink(ctx, owner.ID, link.ID)
			assert.True(t, businessflow.IsLinkNotFound(err))

			var clicks int64
			require.NoError(t, testDB.DB.Model(&models.LinkClick{}).Where("link_id = ?", link.ID).Count(&clicks).Error)
			assert.Zero(t, clicks)
		})

		return nil
	})
	require.NoError(t, err)
}
