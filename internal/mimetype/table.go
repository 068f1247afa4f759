package mimetype

type typeExts struct {
	contentType string
	exts        []string
}

// builtin is ordered so that an extension shared by two types resolves to
// the first one listed.
var builtin = []typeExts{
	{"text/plain", []string{"txt", "text", "conf", "def", "list", "log", "in", "ini"}},
	{"text/markdown", []string{"md", "markdown"}},
	{"text/html", []string{"html", "htm", "shtml"}},
	{"text/css", []string{"css"}},
	{"text/csv", []string{"csv"}},
	{"text/tab-separated-values", []string{"tsv"}},
	{"text/xml", []string{"xml"}},
	{"text/yaml", []string{"yaml", "yml"}},
	{"text/calendar", []string{"ics", "ifb"}},
	{"text/vcard", []string{"vcard", "vcf"}},
	{"text/richtext", []string{"rtx"}},
	{"text/javascript", []string{"js", "mjs"}},
	{"text/x-c", []string{"c", "h", "cc", "cpp", "cxx", "hh", "dic"}},
	{"text/x-go", []string{"go"}},
	{"text/x-python", []string{"py"}},
	{"text/x-java-source", []string{"java"}},
	{"text/x-shellscript", []string{"sh"}},
	{"text/x-sql", []string{"sql"}},
	{"application/json", []string{"json", "map"}},
	{"application/ld+json", []string{"jsonld"}},
	{"application/toml", []string{"toml"}},
	{"application/pdf", []string{"pdf"}},
	{"application/rtf", []string{"rtf"}},
	{"application/zip", []string{"zip"}},
	{"application/gzip", []string{"gz", "tgz"}},
	{"application/x-tar", []string{"tar"}},
	{"application/x-bzip2", []string{"bz2", "boz"}},
	{"application/x-xz", []string{"xz"}},
	{"application/zstd", []string{"zst"}},
	{"application/x-7z-compressed", []string{"7z"}},
	{"application/vnd.rar", []string{"rar"}},
	{"application/octet-stream", []string{"bin", "dms", "lrf", "mar", "so", "dist", "distz", "pkg", "bpk", "dump", "elc", "deploy", "exe", "dll", "deb", "dmg", "iso", "img", "msi", "msp", "msm", "buffer"}},
	{"application/msword", []string{"doc", "dot"}},
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []string{"docx"}},
	{"application/vnd.ms-excel", []string{"xls", "xlm", "xla", "xlc", "xlt", "xlw"}},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []string{"xlsx"}},
	{"application/vnd.ms-powerpoint", []string{"ppt", "pps", "pot"}},
	{"application/vnd.openxmlformats-officedocument.presentationml.presentation", []string{"pptx"}},
	{"application/vnd.oasis.opendocument.text", []string{"odt"}},
	{"application/vnd.oasis.opendocument.spreadsheet", []string{"ods"}},
	{"application/vnd.oasis.opendocument.presentation", []string{"odp"}},
	{"application/epub+zip", []string{"epub"}},
	{"application/java-archive", []string{"jar", "war", "ear"}},
	{"application/wasm", []string{"wasm"}},
	{"application/x-sqlite3", []string{"sqlite", "sqlite3", "db"}},
	{"application/xhtml+xml", []string{"xhtml", "xht"}},
	{"application/x-x509-ca-cert", []string{"der", "crt", "pem"}},
	{"application/pgp-encrypted", []string{"pgp", "gpg", "asc"}},
	{"image/png", []string{"png"}},
	{"image/jpeg", []string{"jpeg", "jpg", "jpe"}},
	{"image/gif", []string{"gif"}},
	{"image/webp", []string{"webp"}},
	{"image/avif", []string{"avif"}},
	{"image/bmp", []string{"bmp"}},
	{"image/tiff", []string{"tiff", "tif"}},
	{"image/svg+xml", []string{"svg", "svgz"}},
	{"image/x-icon", []string{"ico"}},
	{"image/heic", []string{"heic"}},
	{"image/heif", []string{"heif"}},
	{"audio/mpeg", []string{"mp3", "mpga", "mp2", "mp2a", "m2a", "m3a"}},
	{"audio/ogg", []string{"oga", "ogg", "spx", "opus"}},
	{"audio/wav", []string{"wav"}},
	{"audio/flac", []string{"flac"}},
	{"audio/aac", []string{"aac"}},
	{"audio/mp4", []string{"m4a", "mp4a"}},
	{"audio/webm", []string{"weba"}},
	{"audio/midi", []string{"mid", "midi", "kar", "rmi"}},
	{"video/mp4", []string{"mp4", "mp4v", "mpg4"}},
	{"video/mpeg", []string{"mpeg", "mpg", "mpe", "m1v", "m2v"}},
	{"video/quicktime", []string{"mov", "qt"}},
	{"video/webm", []string{"webm"}},
	{"video/x-matroska", []string{"mkv", "mk3d", "mks"}},
	{"video/x-msvideo", []string{"avi"}},
	{"video/x-m4v", []string{"m4v"}},
	{"video/ogg", []string{"ogv"}},
	{"font/woff", []string{"woff"}},
	{"font/woff2", []string{"woff2"}},
	{"font/ttf", []string{"ttf"}},
	{"font/otf", []string{"otf"}},
}
