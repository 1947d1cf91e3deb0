package navpolicy

// DefaultDownloadExtensions lists path suffixes the browser hands to the
// download subsystem instead of navigating. Matched case-insensitively
// against the URL path.
var DefaultDownloadExtensions = []string{
	".3gp", ".7z", ".aac", ".apk", ".appimage", ".avi", ".bat", ".bin", ".bmp",
	".bz2", ".c", ".cmd", ".cpp", ".cs", ".deb", ".dmg", ".dll", ".doc", ".docx",
	".eot", ".exe", ".flac", ".flv", ".gif", ".gz", ".h", ".ico", ".img", ".iso",
	".jar", ".java", ".jpeg", ".jpg", ".js", ".lua", ".lz", ".lzma", ".m4a", ".mkv",
	".mov", ".mp3", ".mp4", ".mpg", ".mpeg", ".msi", ".odp", ".ods", ".odt", ".ogg",
	".otf", ".pdf", ".pkg", ".pl", ".png", ".pps", ".ppt", ".pptx", ".ps1",
	".py", ".rar", ".rb", ".rpm", ".rtf", ".run", ".sh", ".so", ".svg", ".tar",
	".tar.bz2", ".tar.gz", ".tbz2", ".tgz", ".tiff", ".ttf", ".txt", ".vhd", ".vmdk",
	".wav", ".webm", ".webp", ".wma", ".woff", ".woff2", ".wmv", ".xls", ".xlsx", ".zip",
}

// pseudoPrefixes are internal pseudo-scheme destinations the shell resolves
// itself; sub-frames never get to load them unless whitelisted.
var pseudoPrefixes = []string{
	"about:", "data:", "blob:", "_data:", "_blank", "_parent", "_self", "_top", "_window",
}
