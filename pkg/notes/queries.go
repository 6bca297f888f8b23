// Package notes generates the per-property note summary PDF: ownership
// transactions, present owners, society and club membership details.
package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbchs/registry-assistant/pkg/database"
)

// propertyRecord bundles everything the note needs for one PRA.
type propertyRecord struct {
	PRA             string
	InitialPlotSize string
	CurrentOwners   []map[string]any
	History         []map[string]any
	ShareRows       []map[string]any
	ClubRows        []map[string]any
}

func loadPropertyRecord(ctx context.Context, runner database.SelectRunner, pra string) (*propertyRecord, error) {
	safePRA := strings.ReplaceAll(pra, "'", "''")

	sqlCurrent := fmt.Sprintf(`SELECT T2.name AS owner_name, T1.buyer_portion
FROM current_owners AS T1
JOIN persons AS T2 ON T1.buyer_id = T2.id
JOIN properties AS T3 ON T1.property_id = T3.id
WHERE T3.pra = '%s'
LIMIT 50;`, safePRA)

	sqlHistory := fmt.Sprintf(`SELECT T3.name AS buyer_name,
       T5.name AS seller_name,
       (T4.signing_date->>0) AS signing_date,
       T2.buyer_portion,
       T2.transfer_type,
       T2.notes
FROM properties AS T1
JOIN ownership_records AS T2 ON T1.id = T2.property_id
JOIN persons AS T3 ON T2.buyer_id = T3.id
JOIN sale_deeds AS T4 ON T2.sale_deed_id = T4.id
JOIN ownership_sellers AS T6 ON T6.ownership_id = T2.id
JOIN persons AS T5 ON T5.id = T6.person_id
WHERE T1.pra = '%s'
LIMIT 50;`, safePRA)

	sqlInitialSize := fmt.Sprintf(`SELECT T2.initial_plot_size
FROM properties AS T1
JOIN property_addresses AS T2 ON T1.id = T2.property_id
WHERE T1.pra = '%s'
LIMIT 1;`, safePRA)

	sqlShare := fmt.Sprintf(`SELECT
       T2.certificate_number,
       T2.date_of_transfer,
       T3.name AS member_name
FROM properties AS T1
JOIN share_certificates AS T2 ON T1.id = T2.property_id
JOIN persons AS T3 ON T2.member_id = T3.id
WHERE T1.pra = '%s'
LIMIT 50;`, safePRA)

	sqlClub := fmt.Sprintf(`SELECT
       T1.membership_number,
       T2.name AS member_name,
       T1.allocation_date
FROM club_memberships AS T1
JOIN persons AS T2 ON T1.member_id = T2.id
JOIN properties AS T3 ON T1.property_id = T3.id
WHERE T3.pra = '%s'
LIMIT 50;`, safePRA)

	currentRows, err := runner.RunSelect(ctx, sqlCurrent, true)
	if err != nil {
		return nil, fmt.Errorf("current owners: %w", err)
	}
	historyRows, err := runner.RunSelect(ctx, sqlHistory, true)
	if err != nil {
		return nil, fmt.Errorf("ownership history: %w", err)
	}
	sizeRows, err := runner.RunSelect(ctx, sqlInitialSize, true)
	if err != nil {
		return nil, fmt.Errorf("initial plot size: %w", err)
	}
	shareRows, err := runner.RunSelect(ctx, sqlShare, true)
	if err != nil {
		return nil, fmt.Errorf("share certificates: %w", err)
	}
	clubRows, err := runner.RunSelect(ctx, sqlClub, true)
	if err != nil {
		return nil, fmt.Errorf("club memberships: %w", err)
	}

	rec := &propertyRecord{
		PRA:           pra,
		CurrentOwners: currentRows,
		History:       historyRows,
		ShareRows:     shareRows,
		ClubRows:      clubRows,
	}
	if len(sizeRows) > 0 {
		if v, ok := sizeRows[0]["initial_plot_size"].(string); ok {
			rec.InitialPlotSize = strings.TrimSpace(v)
		}
	}
	return rec, nil
}
