package elasticsearch

// DefaultIndexName is the default index for paint product documents.
const DefaultIndexName = "paint_products"

// buildIndexMapping returns the index settings and mapping. Substring fields
// use the wildcard type so "*term*" queries stay exact and fast; variant
// details are kept in _source only.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "dynamic": false,
    "properties": {
      "id":                { "type": "keyword" },
      "name":              { "type": "text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "name_lower":        { "type": "wildcard" },
      "description_lower": { "type": "wildcard" },
      "search_text":       { "type": "wildcard" },
      "brand_key":         { "type": "keyword" },
      "category_key":      { "type": "keyword" },
      "finish_keys":       { "type": "keyword" },
      "color_names_lower": { "type": "wildcard" },
      "feature_keys":      { "type": "wildcard" },
      "base_price":        { "type": "scaled_float", "scaling_factor": 100 },
      "rating":            { "type": "float" },
      "review_count":      { "type": "integer" },
      "in_stock":          { "type": "boolean" },
      "likes":             { "type": "integer" },
      "created_at":        { "type": "date" },
      "position":          { "type": "long" }
    }
  }
}`
}
