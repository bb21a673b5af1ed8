package components

import (
	"github.com/mindchat/mindchat/ui/styles"
)

func RenderInput(inputView string, disabled bool, width int) string {
	return styles.InputStyle(width, disabled).Render(inputView)
}
