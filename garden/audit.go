package garden

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const auditLogsPath = "/audit-logs"

// ListAuditLogs returns staff audit entries. Filters such as entity or user are
// forwarded to the API as given.
func (c *Client) ListAuditLogs(ctx context.Context, query url.Values) ([]AuditLog, error) {
	if err := c.requireStaff("ListAuditLogs"); err != nil {
		return nil, err
	}
	logs, err := list[AuditLog](ctx, c, auditLogsPath, query, "logs", "audit_logs")
	if err != nil {
		return nil, errors.Wrap(err, "[ListAuditLogs]")
	}
	return logs, nil
}
