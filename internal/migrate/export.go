package migrate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/starford/raido/internal/store"
)

// SyncViewCounts writes the live view counters back into the seed file, so
// a later pipeline run does not reset them. Tools present in the seed but
// not in the database are left untouched. Returns the number of updated
// entries.
func SyncViewCounts(st *store.Store, seedPath string) (int, error) {
	seed, err := LoadSeed(seedPath)
	if err != nil {
		return 0, err
	}

	rows, err := st.Conn().Query(`SELECT legacy_id, view_count FROM tools`)
	if err != nil {
		return 0, fmt.Errorf("migrate: read view counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var legacyID, viewCount int64
		if err := rows.Scan(&legacyID, &viewCount); err != nil {
			return 0, err
		}
		counts[legacyID] = viewCount
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for i, tool := range seed.Tools {
		legacyID, err := store.ExtractLegacyID(tool.ID)
		if err != nil {
			continue
		}
		if vc, ok := counts[legacyID]; ok && vc != tool.ViewCount {
			seed.Tools[i].ViewCount = vc
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("migrate: encode seed: %w", err)
	}
	if err := os.WriteFile(seedPath, append(data, '\n'), 0o644); err != nil {
		return 0, fmt.Errorf("migrate: write seed %s: %w", seedPath, err)
	}
	return updated, nil
}
