package model

// Tool names exposed by the automation endpoint and used in plans.
const (
	ToolClickAt               = "clickAt"
	ToolRightClickAt          = "rightClickAt"
	ToolDoubleClickAt         = "doubleClickAt"
	ToolMoveMouse             = "moveMouse"
	ToolDragMouse             = "dragMouse"
	ToolScroll                = "scroll"
	ToolTypeText              = "typeText"
	ToolPressKey              = "pressKey"
	ToolExecuteShortcut       = "executeShortcut"
	ToolGetAvailableShortcuts = "getAvailableShortcuts"
	ToolOpenApplication       = "openApplication"
	ToolFocusWindow           = "focusWindow"
	ToolGetWindowList         = "getWindowList"
	ToolGetScreenSize         = "getScreenSize"
	ToolTakeScreenshot        = "takeScreenshot"
	ToolWait                  = "wait"
	ToolExecuteToolSequence   = "executeToolSequence"
)

// ScreenSize is the payload of the getScreenSize tool.
type ScreenSize struct {
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}
