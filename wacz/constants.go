package wacz

const (
	archiveDir = "archive/"
	indexesDir = "indexes/"

	// waczVersion is the datapackage.json "wacz_version" field value this
	// package reads and writes.
	waczVersion = "1.1.1"

	datapackageFilename = "datapackage.json"
)

// indexCandidates is the fallback order wacz.Open tries when locating the
// index member, matching WaczFile._get_index exactly.
var indexCandidates = []string{
	indexesDir + "index.cdxj",
	indexesDir + "index.cdxj.gz",
	indexesDir + "index.cdx",
	indexesDir + "index.cdx.gz",
}
