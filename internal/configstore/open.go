package configstore

import (
	"strings"

	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// Open opens the store named by uri:
//
//	sqlite:/var/lib/dbadvisor/config.db  SQLite store
//	file:/etc/dbadmin/config.yaml        YAML store
//	/etc/dbadmin/config.yaml             YAML store
func Open(uri string) (Store, error) {
	if uri == "" {
		return nil, dberrors.ValidationError("no configuration store given", nil).
			WithSuggestion("pass --store or set store: in the dbadvisor settings")
	}
	if path, ok := strings.CutPrefix(uri, "sqlite:"); ok {
		return OpenSQLite(path)
	}
	return LoadFile(strings.TrimPrefix(uri, "file:"))
}
