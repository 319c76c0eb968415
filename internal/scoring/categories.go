package scoring

import (
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

type category struct {
	name     string
	keywords []string
}

// methodCategories groups the methods of the well-known receivers into
// their sub-subsection. The first category with a keyword in the method
// name wins.
var methodCategories = map[string][]category{
	"Package": {
		{"Package Comment Methods", []string{"comment"}},
		{"Package Identity Methods", []string{"appid", "vendorid", "identity", "packageidentity"}},
		{"Package Special File Methods", []string{
			"indexfile", "manifestfile", "metadatafile", "signaturefile", "specialfile", "specialmetadata",
		}},
		{"Package Path Metadata Methods", []string{
			"pathmetadata", "directorymetadata", "filepathassociation", "pathconflicts",
			"pathstats", "pathtree", "pathfiles", "filesinpath", "destpath", "targetexists",
		}},
		{"Package Symlink Methods", []string{"symlink"}},
		{"Package Metadata-Only Methods", []string{"metadataonly"}},
		{"Package Info Methods", []string{"packageinfo"}},
		{"Package Metadata Validation Methods", []string{
			"validatemetadataonly", "validatepathmetadata", "validatespecial",
			"validatesymlink", "validatepathwithin",
		}},
		{"Package Metadata Internal Methods", []string{"load", "save", "updatefilepathassociations"}},
		{"Package File Encryption Methods", []string{
			"encryptfile", "decryptfile", "validatefileencryption", "fileencryptioninfo",
		}},
		{"Package Write Methods", []string{"safewrite", "fastwrite", "write"}},
		{"Package Signature Management Methods", []string{"signature", "sign", "validatesignature"}},
		{"Package Lifecycle Methods", []string{"open", "close", "validate", "integrity", "defragment"}},
		{"Package File Management Methods", []string{
			"addfile", "removefile", "extract", "updatefile", "addfilepath", "removefilepath",
		}},
		{"Package Compression Methods", []string{"compress", "compressed", "compression", "decompress"}},
		{"Package Information and Queries Methods", []string{
			"getinfo", "getmetadata", "listfiles", "fileexists", "getfile", "getpath",
			"getpathstats", "getpathmetadata", "isopen", "isreadonly", "securitystatus",
			"multipath", "list", "find", "has",
		}},
		{"Package Path and Configuration Methods", []string{"targetpath", "extractroot", "sessionbase"}},
	},
	"FileEntry": {
		{"FileEntry Data Methods", []string{"getdata", "setdata", "loaddata", "unloaddata", "data"}},
		{"FileEntry Temp File Methods", []string{"tempfile", "temp"}},
		{"FileEntry Serialization Methods", []string{"marshal", "writedata", "writemeta", "writeto"}},
		{"FileEntry Path Methods", []string{"path", "symlink", "associate", "resolve"}},
		{"FileEntry Transformation Methods", []string{
			"compress", "decompress", "encrypt", "decrypt", "transform", "process",
			"pipeline", "set", "unset", "current", "original", "processingstate",
			"validate", "cleanup", "resume", "execute", "copy",
		}},
		{"FileEntry Query Methods", []string{"get", "has", "is"}},
	},
	"Tag": {
		{"Tag Methods", []string{"get", "set"}},
	},
}

var categoryDefaults = map[string]string{
	"Package":   "Package Other Methods",
	"FileEntry": "FileEntry Query Methods",
	"Tag":       "Tag Methods",
}

var packageExactCategories = map[string]string{
	"addpathtoexistingentry":        "Package File Management Methods",
	"isopen":                        "Package Information and Queries Methods",
	"loadpathmetadata":              "Package Metadata Internal Methods",
	"loadspecialmetadatafiles":      "Package Metadata Internal Methods",
	"loadsymlinkmetadatafile":       "Package Symlink Methods",
	"savepathmetadatafile":          "Package Metadata Internal Methods",
	"savesymlinkmetadatafile":       "Package Metadata Internal Methods",
	"updatefilemetadata":            "Package Path Metadata Methods",
	"validatemetadataonlyintegrity": "Package Metadata Validation Methods",
	"validatemetadataonlypackage":   "Package Metadata Validation Methods",
	"validatepathmetadata":          "Package Metadata Validation Methods",
	"validatespecialfiles":          "Package Metadata Validation Methods",
	"validatesymlinkpaths":          "Package Metadata Validation Methods",
}

var packageContainsCategories = []struct{ token, category string }{
	{"validatefileencryption", "Package File Encryption Methods"},
	{"encryptioninfo", "Package File Encryption Methods"},
	{"compressioninfo", "Package Compression Methods"},
	{"listcompressedfiles", "Package Compression Methods"},
	{"bytag", "Package Information and Queries Methods"},
	{"metadataindex", "Package Compression Methods"},
	{"multipath", "Package Information and Queries Methods"},
	{"filepathassociations", "Package Metadata Internal Methods"},
	{"sessionbase", "Package Path and Configuration Methods"},
	{"targetpath", "Package Path and Configuration Methods"},
}

func packageOverride(method string) string {
	if c, ok := packageExactCategories[method]; ok {
		return c
	}
	for _, pc := range packageContainsCategories {
		if strings.Contains(method, pc.token) {
			return pc.category
		}
	}
	if strings.HasPrefix(method, "updatefile") && !strings.Contains(method, "pattern") {
		return "Package File Management Methods"
	}
	return ""
}

func packageCategoryFromFile(file, method string) string {
	switch file {
	case "api_file_mgmt_addition.md", "api_file_mgmt_removal.md", "api_file_mgmt_extraction.md":
		return "Package File Management Methods"
	case "api_file_mgmt_queries.md":
		if strings.Contains(method, "compressed") {
			return "Package Compression Methods"
		}
		return "Package Information and Queries Methods"
	case "api_deduplication.md":
		return "Package Information and Queries Methods"
	case "api_signatures.md":
		return "Package Signature Management Methods"
	case "api_package_compression.md":
		return "Package Compression Methods"
	case "api_security.md":
		if strings.Contains(method, "signature") {
			return "Package Signature Management Methods"
		}
	}
	return ""
}

func fileEntryCategory(method string) string {
	switch {
	case method == "getdata" || method == "setdata" || method == "loaddata" || method == "unloaddata":
		return "FileEntry Data Methods"
	case strings.Contains(method, "tempfile"):
		return "FileEntry Temp File Methods"
	case hasAnyPrefix(method, "marshal", "writedata", "writemeta", "writeto"):
		return "FileEntry Serialization Methods"
	case containsAny(method, []string{"pathmetadata", "symlink", "path", "associate", "resolve"}):
		return "FileEntry Path Methods"
	case hasAnyPrefix(method, "get", "has", "is"):
		return "FileEntry Query Methods"
	case hasAnyPrefix(method, "set", "compress", "decompress", "encrypt", "decrypt", "process",
		"transform", "resume", "execute", "cleanup", "validate", "copy", "unset"),
		containsAny(method, []string{"pipeline", "current", "original", "processingstate"}):
		return "FileEntry Transformation Methods"
	}
	return ""
}

// Categorize names the sub-subsection heading a method of receiver
// belongs under, such as "Package Lifecycle Methods". Receivers without
// category rules yield "Other Methods".
func Categorize(def *model.Definition, receiver string) string {
	method := def.Name
	if _, after, ok := strings.Cut(def.Name, "."); ok {
		method = after
	}
	method = strings.ToLower(method)

	switch receiver {
	case "PathMetadataEntry":
		return "Package Path Metadata Methods"
	case "Tag":
		return "Tag Methods"
	case "Package":
		if c := packageOverride(method); c != "" {
			return c
		}
		if c := packageCategoryFromFile(def.File, method); c != "" {
			return c
		}
	case "FileEntry":
		if c := fileEntryCategory(method); c != "" {
			return c
		}
	}

	categories, ok := methodCategories[receiver]
	if !ok {
		return "Other Methods"
	}
	for _, cat := range categories {
		if containsAny(method, cat.keywords) {
			return cat.name
		}
	}
	return categoryDefaults[receiver]
}

// HasCategoryRules reports whether receiver has its own method categories.
func HasCategoryRules(receiver string) bool {
	_, ok := methodCategories[receiver]
	return ok
}

// IsSignatureMethod reports whether a Package method deals with signing
// or validation.
func IsSignatureMethod(def *model.Definition) bool {
	if def.File == "api_signatures.md" {
		return true
	}
	lower := strings.ToLower(def.Name)
	if strings.Contains(lower, "signature") {
		return true
	}
	if _, after, ok := strings.Cut(lower, "."); ok {
		lower = after
	}
	return strings.HasPrefix(lower, "sign") || strings.HasPrefix(lower, "validate")
}
