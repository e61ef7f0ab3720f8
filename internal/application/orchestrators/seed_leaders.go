package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"celltracker/internal/domain/apperror"
	"celltracker/internal/domain/backup"
	"celltracker/internal/domain/leader"
)

// SeedLeaderCount is the number of sample leaders created by SeedLeaders.
const SeedLeaderCount = 30

// SeedLeadersDeps holds dependencies for SeedLeaders.
type SeedLeadersDeps struct {
	BackupStore BackupStoreForRestore
	Directory   leader.Directory
	Now         func() time.Time
}

// ExecuteSeedLeaders wipes all data and creates SeedLeaderCount sample leaders.
// PRE: none
// POST: Leaders 1..SeedLeaderCount exist round-robin across the configured zones; no service records remain
func ExecuteSeedLeaders(ctx context.Context, deps SeedLeadersDeps) (int, error) {
	now := clock(deps.Now).UTC().Truncate(time.Microsecond)
	dir := deps.Directory
	if len(dir.Zones()) == 0 {
		dir = leader.NewDirectory(nil, nil)
	}
	zones := dir.Zones()
	days := dir.CellDays()

	leaders := make([]leader.Leader, 0, SeedLeaderCount)
	for i := 1; i <= SeedLeaderCount; i++ {
		zone := zones[(i-1)%len(zones)]
		l := leader.New(fmt.Sprintf("Leader %d", i), zone, days[i%len(days)])
		l.ID = int64(i)
		l.ContactNumber = fmt.Sprintf("+27 %02d %03d %04d", 70+i%30, 100+i%900, 1000+i%9000)
		l.Email = fmt.Sprintf("leader%d@church.org.za", i)
		l.Address = fmt.Sprintf("%d Main Street, %s, South Africa", i*10, zone)
		l.CreatedAt, l.UpdatedAt = now, now
		leaders = append(leaders, l)
	}

	if err := deps.BackupStore.ReplaceAll(ctx, backup.Dataset{Leaders: leaders}); err != nil {
		return 0, apperror.Storage("failed to seed leaders", err)
	}

	slog.Info("seed_event", "event", "leaders_seeded", "leaders", len(leaders), "zones", len(zones))
	return len(leaders), nil
}
