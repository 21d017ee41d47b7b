// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	testingutil "github.com/linkpulse/linkpulse/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyticsFlow(testDB *testingutil.TestDB) businessflow.AnalyticsFlow {
	return businessflow.NewAnalyticsFlow(
		repository.NewLinkRepository(testDB.DB),
		repository.NewLinkClickRepository(testDB.DB),
		repository.NewPlatformClickRepository(testDB.DB),
		nil,
		&config.CacheConfig{},
	)
}

func TestAnalyticsFlowLinkStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAnalyticsFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		link, err := fixtures.CreateTestLink(user.ID)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestClick(link.ID, models.PlatformFacebook)
			require.NoError(t, err)
		}
		_, err = fixtures.CreateTestClick(link.ID, models.PlatformTwitter)
		require.NoError(t, err)

		t.Run("AggregatesPlatformBuckets", func(t *testing.T) {
			stats, err := flow.LinkStats(ctx, user.ID, link.ID, 10)
			require.NoError(t, err)
			assert.Equal(t, link.TrackingID, stats.TrackingID)
			assert.Equal(t, int64(4), stats.TotalClicks)
			assert.Equal(t, int64(3), stats.Platforms[models.PlatformFacebook.String()])
			assert.Equal(t, int64(1), stats.Platforms[models.PlatformTwitter.String()])
			assert.Zero(t, stats.Platforms[models.PlatformTelegram.String()])
			assert.Equal(t, int64(4), stats.Devices["desktop"])
			assert.Equal(t, int64(4), stats.Browsers["Firefox"])
			require.Len(t, stats.Daily, 1)
			assert.Equal(t, int64(4), stats.Daily[0].Count)
			assert.Len(t, stats.RecentClicks, 4)
		})

		t.Run("OtherUserDenied", func(t *testing.T) {
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = flow.LinkStats(ctx, stranger.ID, link.ID, 10)
			assert.Error(t, err)
		})

		t.Run("PlatformClicksFiltersByTag", func(t *testing.T) {
			clicks, err := flow.PlatformClicks(ctx, user.ID, link.ID, models.PlatformFacebook.String(), 50, 0)
			require.NoError(t, err)
			require.Len(t, clicks, 3)
			for _, c := range clicks {
				assert.Equal(t, models.PlatformFacebook.String(), c.Platform)
			}
		})

		t.Run("PlatformClicksRejectsUnknownTag", func(t *testing.T) {
			_, err := flow.PlatformClicks(ctx, user.ID, link.ID, "myspace", 50, 0)
			assert.Error(t, err)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAnalyticsFlowGroupStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAnalyticsFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		variants, err := fixtures.CreateABTestGroup(user.ID, 2)
		require.NoError(t, err)
		require.Len(t, variants, 2)

		// 3 clicks on variant A, 1 on variant B
		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestClick(variants[0].ID, models.PlatformInstagram)
			require.NoError(t, err)
		}
		_, err = fixtures.CreateTestClick(variants[1].ID, models.PlatformDirect)
		require.NoError(t, err)

		t.Run("SharesSumToOne", func(t *testing.T) {
			stats, err := flow.GroupStats(ctx, user.ID, *variants[0].GroupID)
			require.NoError(t, err)
			assert.Equal(t, int64(4), stats.TotalClicks)
			require.Len(t, stats.Variants, 2)

			var sum float64
			byLink := map[uint]float64{}
			for _, v := range stats.Variants {
				sum += v.Share
				byLink[v.LinkID] = v.Share
			}
			assert.InDelta(t, 1.0, sum, 0.0001)
			assert.InDelta(t, 0.75, byLink[variants[0].ID], 0.0001)
			assert.InDelta(t, 0.25, byLink[variants[1].ID], 0.0001)
			assert.Equal(t, int64(3), stats.Platforms[models.PlatformInstagram.String()])
		})

		t.Run("UnknownGroup", func(t *testing.T) {
			_, err := flow.GroupStats(ctx, user.ID, "00000000-0000-0000-0000-000000000000")
			assert.True(t, businessflow.IsGroupNotFound(err))
		})

		t.Run("GroupOwnedByAnotherUser", func(t *testing.T) {
			stranger, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = flow.GroupStats(ctx, stranger.ID, *variants[0].GroupID)
			assert.True(t, businessflow.IsLinkAccessDenied(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAnalyticsFlowExport(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAnalyticsFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		link, err := fixtures.CreateTestLink(user.ID)
		require.NoError(t, err)
		_, err = fixtures.CreateTestClick(link.ID, models.PlatformTelegram)
		require.NoError(t, err)
		_, err = fixtures.CreateTestClick(link.ID, models.PlatformEmail)
		require.NoError(t, err)

		filename, data, err := flow.ExportLinkClicksExcel(ctx, user.ID, link.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("link_%s_clicks.xlsx", link.TrackingID), filename)
		require.NotEmpty(t, data)

		// Workbook must open and carry a header row plus one row per click
		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		sheet := f.GetSheetName(0)
		assert.Equal(t, "all_clicks", sheet)
		rows, err := f.GetRows(sheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Contains(t, rows[0], "platform")

		return nil
	})
	require.NoError(t, err)
}
