package components

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestBadge(t *testing.T) {
	assert.Equal(t, `<span class="badge badge-warning" data-status="pending">Pending</span>`, render(t, Badge("pending")))
	assert.Equal(t, `<span class="badge badge-success" data-status="paid">Paid</span>`, render(t, Badge("paid")))
	assert.Contains(t, render(t, Badge("in_review")), ">In review<")
	assert.Contains(t, render(t, Badge("<x>")), "badge-neutral")
	assert.NotContains(t, render(t, Badge("<x>")), "<x>")
}

func TestAvatar(t *testing.T) {
	assert.Contains(t, render(t, Avatar("Ana Ruiz", "", "AR", "")), ">AR</span>")
	img := render(t, Avatar("Ana", "/media/avatars/1", "A", "lg"))
	assert.Contains(t, img, `src="/media/avatars/1"`)
	assert.Contains(t, img, "avatar-lg")
	assert.NotContains(t, render(t, Avatar("x", "javascript:alert(1)", "X", "")), "javascript:")
}

func TestButtonAndCard(t *testing.T) {
	assert.Equal(t, `<button type="submit" class="btn btn-primary">Save</button>`, render(t, Button("Save", "primary", "submit")))
	assert.Contains(t, render(t, Button("Go", "secondary", "")), `type="button"`)
	assert.Contains(t, render(t, LinkButton("Open", "/client/cases", "secondary")), `href="/client/cases"`)

	card := render(t, Card("Cases", Badge("open")))
	assert.Contains(t, card, `<h2 class="card-title">Cases</h2>`)
	assert.Contains(t, card, "badge-info")
}

func TestJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, JSON(map[string]int{"a": 1}))
	assert.Equal(t, "{}", JSON(make(chan int)))
}
