// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	testingutil "github.com/linkpulse/linkpulse/testing"
	"github.com/linkpulse/linkpulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewLinkRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("ByTrackingIDOrAliasTrackingID", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			found, err := repo.ByTrackingIDOrAlias(ctx, link.TrackingID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, link.ID, found.ID)
		})

		t.Run("ByTrackingIDOrAliasCustomAlias", func(t *testing.T) {
			link, err := fixtures.CreateTestLinkWithAlias(user.ID, "spring-sale")
			require.NoError(t, err)

			found, err := repo.ByTrackingIDOrAlias(ctx, "spring-sale")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, link.ID, found.ID)
		})

		t.Run("ByTrackingIDOrAliasMiss", func(t *testing.T) {
			found, err := repo.ByTrackingIDOrAlias(ctx, "no-such-identifier")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByTrackingIDOrAliasOverlapPrefersTrackingID", func(t *testing.T) {
			first, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)

			// A second link whose alias collides with the first link's tracking id
			second, err := fixtures.CreateTestLinkWithAlias(user.ID, first.TrackingID)
			require.NoError(t, err)

			found, err := repo.ByTrackingIDOrAlias(ctx, first.TrackingID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, first.ID, found.ID)
			assert.NotEqual(t, second.ID, found.ID)
		})

		t.Run("ListByUserWithTag", func(t *testing.T) {
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			mine, err := fixtures.CreateTestLink(other.ID)
			require.NoError(t, err)

			links, err := repo.ListByUser(ctx, other.ID, "", "test")
			require.NoError(t, err)
			require.Len(t, links, 1)
			assert.Equal(t, mine.ID, links[0].ID)

			none, err := repo.ListByUser(ctx, other.ID, "", "absent")
			require.NoError(t, err)
			assert.Empty(t, none)
		})

		t.Run("ListByGroup", func(t *testing.T) {
			variants, err := fixtures.CreateABTestGroup(user.ID, 3)
			require.NoError(t, err)

			listed, err := repo.ListByGroup(ctx, *variants[0].GroupID)
			require.NoError(t, err)
			assert.Len(t, listed, 3)
		})

		t.Run("DeleteCascadesClicks", func(t *testing.T) {
			link, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(link.ID, models.PlatformFacebook)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, link.ID))

			found, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Nil(t, found)

			var clickCount int64
			require.NoError(t, testDB.DB.Model(&models.LinkClick{}).Where("link_id = ?", link.ID).Count(&clickCount).Error)
			assert.Zero(t, clickCount)

			var bucketCount int64
			require.NoError(t, testDB.DB.Model(&models.PlatformClick{}).Where("link_id = ?", link.ID).Count(&bucketCount).Error)
			assert.Zero(t, bucketCount)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPlatformClickRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPlatformClickRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		link, err := fixtures.CreateTestLink(user.ID)
		require.NoError(t, err)

		_, err = fixtures.CreateTestClick(link.ID, models.PlatformFacebook)
		require.NoError(t, err)
		_, err = fixtures.CreateTestClick(link.ID, models.PlatformFacebook)
		require.NoError(t, err)
		_, err = fixtures.CreateTestClick(link.ID, models.PlatformDirect)
		require.NoError(t, err)

		t.Run("CountsByLinkZeroFillsAllTags", func(t *testing.T) {
			counts, err := repo.CountsByLink(ctx, link.ID)
			require.NoError(t, err)

			// Every tag is present even with zero clicks
			assert.Len(t, counts, len(models.AllPlatformTags()))
			assert.Equal(t, int64(2), counts[models.PlatformFacebook])
			assert.Equal(t, int64(1), counts[models.PlatformDirect])
			assert.Equal(t, int64(0), counts[models.PlatformYoutube])
		})

		t.Run("CountsByLinksAggregatesGroup", func(t *testing.T) {
			second, err := fixtures.CreateTestLink(user.ID)
			require.NoError(t, err)
			_, err = fixtures.CreateTestClick(second.ID, models.PlatformTwitter)
			require.NoError(t, err)

			counts, err := repo.CountsByLinks(ctx, []uint{link.ID, second.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts[models.PlatformFacebook])
			assert.Equal(t, int64(1), counts[models.PlatformTwitter])
			assert.Equal(t, int64(1), counts[models.PlatformDirect])
		})

		t.Run("ListByLinkAndPlatform", func(t *testing.T) {
			rows, err := repo.ListByLinkAndPlatform(ctx, link.ID, models.PlatformFacebook, 10, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)
			for _, row := range rows {
				assert.Equal(t, models.PlatformFacebook, row.Platform)
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestNotificationRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewNotificationRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		link, err := fixtures.CreateTestLink(user.ID)
		require.NoError(t, err)

		milestoneNotification := func(milestone int) *models.Notification {
			m := milestone
			return &models.Notification{
				UserID:    user.ID,
				Type:      models.NotificationTypeMilestone,
				Message:   "Your link reached a milestone",
				LinkID:    &link.ID,
				Milestone: &m,
			}
		}

		t.Run("CreateMilestoneFirstInsertWins", func(t *testing.T) {
			created, err := repo.CreateMilestone(ctx, milestoneNotification(5))
			require.NoError(t, err)
			assert.True(t, created)
		})

		t.Run("CreateMilestoneDuplicateIsNoop", func(t *testing.T) {
			created, err := repo.CreateMilestone(ctx, milestoneNotification(5))
			require.NoError(t, err)
			assert.False(t, created)

			var count int64
			require.NoError(t, testDB.DB.Model(&models.Notification{}).
				Where("link_id = ? AND milestone = ?", link.ID, 5).Count(&count).Error)
			assert.Equal(t, int64(1), count)
		})

		t.Run("DifferentMilestoneStillInserts", func(t *testing.T) {
			created, err := repo.CreateMilestone(ctx, milestoneNotification(100))
			require.NoError(t, err)
			assert.True(t, created)
		})

		t.Run("FindMilestone", func(t *testing.T) {
			found, err := repo.FindMilestone(ctx, link.ID, 5)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.UserID)
			require.NotNil(t, found.Milestone)
			assert.Equal(t, 5, *found.Milestone)

			missing, err := repo.FindMilestone(ctx, link.ID, 500)
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("MarkRead", func(t *testing.T) {
			notification, err := fixtures.CreateTestNotification(user.ID, link.ID, 500)
			require.NoError(t, err)

			require.NoError(t, repo.MarkRead(ctx, notification.ID, user.ID))

			stored, err := repo.ByID(ctx, notification.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.True(t, utils.IsTrue(stored.Read))
		})

		t.Run("MarkReadWrongUser", func(t *testing.T) {
			notification, err := fixtures.CreateTestNotification(user.ID, link.ID, 1000)
			require.NoError(t, err)

			err = repo.MarkRead(ctx, notification.ID, user.ID+999)
			assert.Error(t, err)
		})

		t.Run("MarkAllRead", func(t *testing.T) {
			_, err := fixtures.CreateTestNotification(user.ID, link.ID, 5000)
			require.NoError(t, err)

			require.NoError(t, repo.MarkAllRead(ctx, user.ID))

			var unread int64
			require.NoError(t, testDB.DB.Model(&models.Notification{}).
				Where("user_id = ? AND read = ?", user.ID, false).Count(&unread).Error)
			assert.Zero(t, unread)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUserRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewUserRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("ByEmail", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, user.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.ID)
		})

		t.Run("ByUsername", func(t *testing.T) {
			found, err := repo.ByUsername(ctx, user.Username)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, user.ID, found.ID)
		})

		t.Run("ByEmailMiss", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "ghost@example.com")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			require.NoError(t, repo.UpdateLastLogin(ctx, user.ID))

			stored, err := repo.ByID(ctx, user.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.NotNil(t, stored.LastLoginAt)
		})

		return nil
	})
	require.NoError(t, err)
}
