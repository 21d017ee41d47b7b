// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/linkpulse/linkpulse/app/services"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	testingutil "github.com/linkpulse/linkpulse/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVisitFlow(testDB *testingutil.TestDB) businessflow.VisitFlow {
	return businessflow.NewVisitFlow(
		testDB.DB,
		repository.NewLinkRepository(testDB.DB),
		repository.NewLinkClickRepository(testDB.DB),
		repository.NewPlatformClickRepository(testDB.DB),
		repository.NewNotificationRepository(testDB.DB),
		repository.NewUserRepository(testDB.DB),
		businessflow.NewSignalExtractor(nil, services.NewAgentService()),
		services.NewNotificationService(services.NewMockEmailProvider()),
		nil,
		&config.CacheConfig{},
	)
}

func visitMetadata(referrer string) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata("203.0.113.10", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Firefox/120.0")
	metadata.Referrer = referrer
	return metadata
}

func TestVisitFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newVisitFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("UnknownIdentifier", func(t *testing.T) {
			result, err := flow.Visit(ctx, "never-created", visitMetadata(""))
			assert.Nil(t, result)
			assert.True(t, businessflow.IsLinkNotFound(err))
		})

		t.Run("RedirectAndClassify", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			result, err := flow.Visit(ctx, link.TrackingID, visitMetadata("https://www.facebook.com/some/post"))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, link.URL, result.TargetURL)
			assert.Equal(t, models.PlatformFacebook, result.Platform)
			assert.True(t, result.Recorded)
			assert.Zero(t, result.Milestone)
		})

		t.Run("ResolveByCustomAlias", func(t *testing.T) {
			link, err := fixtures.CreateTestLinkWithAlias(user.ID, "launch-day")
			require.NoError(t, err)

			result, err := flow.Visit(ctx, "launch-day", visitMetadata(""))
			require.NoError(t, err)
			assert.Equal(t, link.URL, result.TargetURL)
			assert.Equal(t, models.PlatformDirect, result.Platform)
		})

		t.Run("DualWriteInvariant", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			referrers := []string{
				"https://www.facebook.com/post",
				"https://twitter.com/status",
				"",
			}
			for _, ref := range referrers {
				_, err := flow.Visit(ctx, link.TrackingID, visitMetadata(ref))
				require.NoError(t, err)
			}

			// Flat list length equals the sum of all bucket lengths
			var flat int64
			require.NoError(t, testDB.DB.Model(&models.LinkClick{}).Where("link_id = ?", link.ID).Count(&flat).Error)
			assert.Equal(t, int64(3), flat)

			counts, err := repository.NewPlatformClickRepository(testDB.DB).CountsByLink(ctx, link.ID)
			require.NoError(t, err)
			var sum int64
			for _, c := range counts {
				sum += c
			}
			assert.Equal(t, flat, sum)
			assert.Equal(t, int64(1), counts[models.PlatformFacebook])
			assert.Equal(t, int64(1), counts[models.PlatformTwitter])
			assert.Equal(t, int64(1), counts[models.PlatformDirect])
		})

		t.Run("SignalsStoredOnBothCopies", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			_, err = flow.Visit(ctx, link.TrackingID, visitMetadata("https://t.me/channel"))
			require.NoError(t, err)

			var flatClick models.LinkClick
			require.NoError(t, testDB.DB.Where("link_id = ?", link.ID).Last(&flatClick).Error)
			var bucketClick models.PlatformClick
			require.NoError(t, testDB.DB.Where("link_id = ?", link.ID).Last(&bucketClick).Error)

			assert.Equal(t, models.PlatformTelegram, flatClick.Platform)
			assert.Equal(t, flatClick.Platform, bucketClick.Platform)
			assert.Equal(t, flatClick.IP, bucketClick.IP)
			assert.Equal(t, flatClick.Referrer, bucketClick.Referrer)
			assert.Equal(t, flatClick.DeviceType, bucketClick.DeviceType)
			assert.Equal(t, flatClick.Browser, bucketClick.Browser)
			assert.Equal(t, flatClick.CreatedAt, bucketClick.CreatedAt)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestVisitFlowMilestones(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newVisitFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("FiresExactlyAtThreshold", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			for i := 1; i <= 5; i++ {
				result, err := flow.Visit(ctx, link.TrackingID, visitMetadata(""))
				require.NoError(t, err)
				if i < 5 {
					assert.Zero(t, result.Milestone, "click %d must not fire", i)
				} else {
					assert.Equal(t, 5, result.Milestone)
				}
			}

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Notification{}).
				Where("link_id = ? AND milestone = ?", link.ID, 5).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})

		t.Run("DoesNotRefireAfterThreshold", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			for i := 1; i <= 7; i++ {
				_, err := flow.Visit(ctx, link.TrackingID, visitMetadata(""))
				require.NoError(t, err)
			}

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Notification{}).
				Where("link_id = ?", link.ID).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})

		t.Run("SkippedThresholdNeverFires", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			// Preload 6 clicks outside the flow so the next visit lands the
			// total on 7 without any visit ever hitting exactly 5.
			for i := 0; i < 6; i++ {
				_, err := fixtures.CreateTestClick(link.ID, models.PlatformDirect)
				require.NoError(t, err)
			}

			result, err := flow.Visit(ctx, link.TrackingID, visitMetadata(""))
			require.NoError(t, err)
			assert.Zero(t, result.Milestone)

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Notification{}).
				Where("link_id = ?", link.ID).Count(&count).Error)
			assert.Zero(t, count)
		})

		t.Run("MilestoneNotificationContent", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			for i := 1; i <= 5; i++ {
				_, err := flow.Visit(ctx, link.TrackingID, visitMetadata(""))
				require.NoError(t, err)
			}

			var notification models.Notification
			require.NoError(t, testDB.DB.Where("link_id = ?", link.ID).Last(&notification).Error)
			assert.Equal(t, user.ID, notification.UserID)
			assert.Equal(t, models.NotificationTypeMilestone, notification.Type)
			require.NotNil(t, notification.Milestone)
			assert.Equal(t, 5, *notification.Milestone)
			assert.Contains(t, notification.Message, link.Title)
			assert.Contains(t, notification.Message, "5")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestVisitFlowRedirectSurvivesRecordFailure(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newVisitFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		link, err := fixtures.CreateTestLink(user.ID)
		require.NoError(t, err)

		// Break click persistence out from under the flow; the visitor must
		// still reach the destination.
		require.NoError(t, testDB.DB.Migrator().DropTable(&models.PlatformClick{}, &models.LinkClick{}))

		result, err := flow.Visit(ctx, link.TrackingID, visitMetadata("https://t.co/abc"))
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, link.URL, result.TargetURL)
		assert.Equal(t, models.PlatformTwitter, result.Platform)
		assert.False(t, result.Recorded)
		assert.Zero(t, result.Milestone)

		return nil
	})
	require.NoError(t, err)
}
