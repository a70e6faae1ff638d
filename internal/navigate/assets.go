package navigate

// Template image names. Each list holds the variants for the supported UI
// languages; the first visible one wins.
var (
	AssetProjects      = []string{"projects.png"}
	AssetTools         = []string{"tools.png", "tools_en.png"}
	AssetFind          = []string{"find.png", "find_en.png"}
	AssetFindCheck     = []string{"find_check.png"}
	AssetFindClose     = []string{"find_close.png", "find_close_en.png"}
	AssetProjectFolder = []string{"folder.png", "folder_en.png"}
	AssetMenuHeader    = []string{"menu_type.png", "menu_type_en.png"}
	AssetReadOnly      = []string{"open_read_only.png", "open_read_only_en.png"}
	AssetModuleMain    = []string{"main.png"}

	AssetColumnSeparator = []string{"column_separator.png"}
	AssetRemoveColumn    = []string{"remove.png", "remove_en.png"}
)

// Icons mapped with the locator.
const (
	IconProjectFolder = "folder.png"
	IconFolder        = "folder_yellow.png"
	IconModule        = "vf_icon.png"
)
