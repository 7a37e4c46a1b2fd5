package main

import (
	"context"
	"testing"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/devserver"
	"fitnest/client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches_ListsBestFirst(t *testing.T) {
	a := useTestApp(t, newDevServer(t).URL)
	cmd, out := testCommand("")
	assert.EqualError(t, matchesCmd.RunE(cmd, nil), "You are not logged in. Run `fitnest login` first.")

	sess, err := auth.Login(context.Background(), a.api, a.store, "an", devserver.SeedPassword)
	require.NoError(t, err)
	a.useSession(context.Background(), sess)

	require.NoError(t, matchesCmd.RunE(cmd, nil))
	lines := out.String()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines, "binh")
	assert.Contains(t, lines, "great match")
}

func TestPrintMatches(t *testing.T) {
	useTestApp(t, "http://localhost")

	cmd, out := testCommand("")
	printMatches(cmd.OutOrStdout(), []models.MatchProfile{
		{UserID: 3, Username: "chi", MatchScore: 72},
		{UserID: 2, Username: "binh", MatchScore: 91},
	})
	assert.Equal(t,
		"2      binh                  91%  great match\n"+
			"3      chi                   72%  good match\n",
		out.String())

	out.Reset()
	printMatches(cmd.OutOrStdout(), nil)
	assert.Equal(t, "No matches yet. Keep exploring!\n", out.String())
}
