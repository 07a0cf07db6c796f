package grants

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Anvoria/blogly/internal/domain/grant"
	"github.com/Anvoria/blogly/internal/domain/session"
	"github.com/Anvoria/blogly/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	db := testutil.SetupTestDB(t, &grant.Grant{})
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	ledger := grant.NewLedger(grant.NewRepository(db), time.Minute, grant.WithClock(func() time.Time { return now }))

	sid, err := session.NewID()
	require.NoError(t, err)
	_, err = ledger.Grant(ctx, sid, uuid.New())
	require.NoError(t, err)
	_, err = ledger.Grant(ctx, sid, uuid.New())
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, sweep(ctx, &out, ledger))
	assert.Equal(t, "Removed 0 expired grant(s)\n", out.String())

	now = start.Add(2 * time.Minute)
	out.Reset()
	require.NoError(t, sweep(ctx, &out, ledger))
	assert.Equal(t, "Removed 2 expired grant(s)\n", out.String())
}

func TestCommand_UnknownSubcommand(t *testing.T) {
	c := &Command{}
	assert.Error(t, c.Run(nil))
	assert.ErrorContains(t, c.Run([]string{"purge"}), "unknown subcommand")
}
