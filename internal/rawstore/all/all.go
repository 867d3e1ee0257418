// Package all registers every raw store backend with the rawstore factory.
// Config selects which one to use; the binary builds in support for all.
package all

import (
	_ "visetl/internal/rawstore/mssql"
	_ "visetl/internal/rawstore/postgres"
	_ "visetl/internal/rawstore/sqlite"
)
