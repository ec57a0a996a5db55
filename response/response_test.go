package response

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b"}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPage)
	assert.Equal(t, 21, p.Total)
	assert.Equal(t, 2, p.Page)

	empty := NewPage[string](nil, 0, 1, 10)
	assert.NotNil(t, empty.List)
	assert.Zero(t, empty.TotalPage)
}

func TestMapPage(t *testing.T) {
	p := MapPage(NewPage([]int{1, 2}, 2, 1, 10), strconv.Itoa)
	assert.Equal(t, []string{"1", "2"}, p.List)
	assert.Equal(t, 1, p.TotalPage)
}

func TestErrorEnvelope(t *testing.T) {
	r := Error("NotFound", "not found")
	assert.False(t, r.Success)
	assert.Equal(t, "NotFound", r.Code)
	assert.NotZero(t, r.Timestamp)
}
