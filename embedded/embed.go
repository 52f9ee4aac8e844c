// Package embedded содержит встроенные ресурсы приложения.
package embedded

import (
	_ "embed"
)

// Catalog - каталог цветов по умолчанию (YAML).
//
//go:embed catalog.yaml
var Catalog []byte

// CatalogSchema - JSON Schema для проверки каталога.
//
//go:embed catalog.schema.json
var CatalogSchema []byte
