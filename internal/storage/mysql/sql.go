package mysql

const selectTestimonialsSQL = `
SELECT
  id,
  rating,
  service_type,
  featured,
  published_at,
  body,
  author_name,
  author_title,
  author_company
FROM testimonials
`

// Note: rating stays NULL for unrated testimonials; CHECK in the migration keeps it in 1..5.
const insertTestimonialsPrefix = "INSERT INTO testimonials\n  (id, rating, service_type, featured, published_at, body, author_name, author_title, author_company)\nVALUES "

// Use VALUES(col) for broad compatibility. rating is overwritten, not coalesced,
// so clearing a rating in the CMS clears it here too.
const insertTestimonialsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  rating         = VALUES(rating),\n" +
	"  service_type   = VALUES(service_type),\n" +
	"  featured       = VALUES(featured),\n" +
	"  published_at   = VALUES(published_at),\n" +
	"  body           = VALUES(body),\n" +
	"  author_name    = VALUES(author_name),\n" +
	"  author_title   = VALUES(author_title),\n" +
	"  author_company = VALUES(author_company),\n" +
	"  updated_at     = CURRENT_TIMESTAMP\n"
