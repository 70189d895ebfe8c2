// Package services contains the business logic sitting between the HTTP
// transport and the data processing pipeline. The report service owns the
// full decode-to-pivot run, the result cache and the export rendering.
package services
