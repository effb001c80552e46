package store

import "fmt"

// SiteConfig is the singleton site configuration plus its ordered keyword
// list.
type SiteConfig struct {
	SiteName    string
	Description string
	Keywords    []string
}

// SiteConfig returns the singleton site configuration row with keywords.
func (s *Store) SiteConfig() (*SiteConfig, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var cfg SiteConfig
	if err := s.stmts.siteConfig.QueryRow().Scan(&cfg.SiteName, &cfg.Description); err != nil {
		return nil, fmt.Errorf("store: site config: %w", err)
	}

	rows, err := s.stmts.siteKeywords.Query()
	if err != nil {
		return nil, fmt.Errorf("store: site keywords: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		cfg.Keywords = append(cfg.Keywords, kw)
	}
	return &cfg, rows.Err()
}
