package driver

const (
	SaveRecordQuery = `
		MERGE (r:Record {dataset: $dataset, row: $row})
		SET r.values = $values
		RETURN r.row AS row
	`

	SaveDuplicateEdgeQuery = `
		MATCH (dup:Record {dataset: $dataset, row: $row})
		MATCH (kept:Record {dataset: $dataset, row: $keeper})
		MERGE (dup)-[e:DUPLICATE_OF]->(kept)
		SET e.score = $score,
			e.disposition = $disposition,
			e.exported_at = $exported_at
		RETURN e.score AS score
	`

	ClearDatasetQuery = `
		MATCH (r:Record {dataset: $dataset})
		DETACH DELETE r
	`

	GetDuplicateEdgesQuery = `
		MATCH (dup:Record {dataset: $dataset})-[e:DUPLICATE_OF]->(kept:Record)
		RETURN dup.row AS row, kept.row AS keeper, e.score AS score, e.disposition AS disposition
		ORDER BY keeper, row
	`
)
