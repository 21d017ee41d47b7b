package middleware

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToString(t *testing.T) {
	t.Run("HTTPStatusCodes", func(t *testing.T) {
		for _, v := range []int{200, 201, 204, 301, 302, 400, 401, 403, 404, 409, 422, 429, 500, 502, 503} {
			assert.Equal(t, strconv.Itoa(v), intToString(v))
		}
	})

	t.Run("MilestoneThresholds", func(t *testing.T) {
		// Labels on link_milestones_total must carry every digit, including
		// the five-digit top threshold
		cases := map[int]string{
			5:     "5",
			100:   "100",
			500:   "500",
			1000:  "1000",
			5000:  "5000",
			10000: "10000",
		}
		for v, want := range cases {
			assert.Equal(t, want, intToString(v))
		}
	})

	t.Run("EdgeValues", func(t *testing.T) {
		assert.Equal(t, "0", intToString(0))
		assert.Equal(t, "-7", intToString(-7))
	})
}
