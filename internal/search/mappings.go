package search

const (
	CompanyIndex = "companies"
	PersonIndex  = "persons"
)

// Index bodies mirror the relational columns that matter for search and
// facet display. Company names get a german analyzer; the source register
// is german-language.
const companyMapping = `{
  "mappings": {
    "properties": {
      "company_id": {"type": "keyword"},
      "raw_name": {"type": "text", "analyzer": "german", "fields": {"keyword": {"type": "keyword"}}},
      "legal_name": {"type": "text", "analyzer": "german", "fields": {"keyword": {"type": "keyword"}}},
      "legal_form": {"type": "keyword"},
      "status": {"type": "keyword"},
      "terminated": {"type": "boolean"},
      "register_unique_key": {"type": "keyword"},
      "register_id": {"type": "keyword"},
      "address_city": {"type": "keyword"},
      "address_postal_code": {"type": "keyword"},
      "address_country": {"type": "keyword"},
      "segment_codes_wz": {"type": "keyword"},
      "segment_codes_nace": {"type": "keyword"},
      "last_update_time": {"type": "date"},
      "related_persons": {
        "type": "nested",
        "properties": {
          "person_id": {"type": "keyword"},
          "name": {"type": "text"},
          "role_type": {"type": "keyword"}
        }
      }
    }
  },
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "german": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "german_normalization", "german_stemmer"]
        }
      },
      "filter": {
        "german_stemmer": {"type": "stemmer", "language": "german"},
        "german_normalization": {"type": "german_normalization"}
      }
    }
  }
}`

const personMapping = `{
  "mappings": {
    "properties": {
      "person_id": {"type": "keyword"},
      "first_name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "last_name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "full_name": {"type": "text", "analyzer": "german"},
      "birth_year": {"type": "integer"},
      "address_city": {"type": "keyword"},
      "company_ids": {"type": "keyword"},
      "roles": {
        "type": "nested",
        "properties": {
          "company_id": {"type": "keyword"},
          "company_name": {"type": "text"},
          "role_type": {"type": "keyword"},
          "role_date": {"type": "date"}
        }
      }
    }
  },
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  }
}`
