package repository

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var channelName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Migrate creates the tables and installs the insert trigger that publishes
// new messages on the given notification channel.
func Migrate(ctx context.Context, db *pgxpool.Pool, channel string) error {
	if !channelName.MatchString(channel) {
		return fmt.Errorf("invalid notification channel %q", channel)
	}

	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	trigger := fmt.Sprintf(`
		DROP TRIGGER IF EXISTS messages_notify_insert ON messages;
		CREATE TRIGGER messages_notify_insert
			AFTER INSERT ON messages
			FOR EACH ROW EXECUTE FUNCTION notify_message_inserted('%s');
	`, channel)
	if _, err := db.Exec(ctx, trigger); err != nil {
		return fmt.Errorf("failed to install message trigger: %w", err)
	}

	return nil
}
