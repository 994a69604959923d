// Package wacz reads and writes WACZ packages: a ZIP container bundling a
// WARC, a sorted CDXJ index, and a Frictionless datapackage.json manifest.
// Reader/MultiReader are modeled on scrapy_webarchive's WaczFile and
// MultiWaczFile; Writer is modeled on its WaczFileCreator.
package wacz
