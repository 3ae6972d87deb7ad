package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delarsify/sanjeevani/internal/audit"
	"github.com/delarsify/sanjeevani/internal/auth"
	"github.com/delarsify/sanjeevani/internal/db"
	"github.com/delarsify/sanjeevani/internal/posts"
	"github.com/delarsify/sanjeevani/internal/progress"
)

func TestParseSeed(t *testing.T) {
	entries, err := parseSeed(strings.NewReader(`
posts:
  - author: Asha
    email: " Asha@Example.org "
    body: Morning walk group meets at 6am.
  - email: ravi@example.org
    body: Free BP camp on Sunday.
`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "asha@example.org", entries[0].Email)
	assert.Equal(t, "Asha", entries[0].Author)
	assert.Equal(t, "", entries[1].Author)
}

func TestParseSeedEmpty(t *testing.T) {
	entries, err := parseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseSeedRejectsBadEntries(t *testing.T) {
	tests := map[string]string{
		"bad email":     "posts:\n  - email: nope\n    body: hi\n",
		"empty body":    "posts:\n  - email: a@b.org\n    body: '   '\n",
		"unknown field": "posts:\n  - email: a@b.org\n    body: hi\n    likes: 3\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestSeedPosts(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	users := auth.NewStore(database)
	svc := posts.NewService(posts.NewStore(database), posts.NewFeed(), audit.NewStore(database))

	var out bytes.Buffer
	reporter := &progress.CIReporter{Label: "Seeding posts", Out: &out}
	n, err := seedPosts(context.Background(), users, svc, []seedPost{
		{Author: "Asha", Email: "asha@example.org", Body: "first"},
		{Author: "Asha", Email: "asha@example.org", Body: "second"},
		{Email: "ravi@example.org", Body: "third"},
	}, reporter)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := svc.List(context.Background(), posts.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	authors := map[string]int{}
	for _, p := range all {
		authors[p.Author]++
	}
	assert.Equal(t, map[string]int{"Asha": 2, "ravi@example.org": 1}, authors)
	assert.NotEmpty(t, out.String())
}
