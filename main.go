package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	sheetApp "charsheet/internal/app"
	"charsheet/internal/config"
	"charsheet/internal/service"
)

//go:embed all:frontend/dist
var assets embed.FS

// cfgPath is the --config flag shared by every command.
var cfgPath string

// rootCmd opens the editor window.
var rootCmd = &cobra.Command{
	Use:   "charsheet",
	Short: "Grid-based RPG character sheet editor",
	Long: `charsheet edits a character sheet laid out on a 12-column grid.

Run without arguments to open the editor window. The subcommands work on
the same sheet without a window: "mcp" serves it to AI agents over stdio,
"export"/"import" move it in and out as JSON, "backup" manages saved copies.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEditor()
	},
}

func init() {
	defaultCfg := config.DefaultPath()
	if v := os.Getenv("CHARSHEET_CONFIG"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "path to config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runEditor() error {
	app := sheetApp.New(cfgPath)

	// macOS needs an Edit menu for Cmd+C/V/X/A to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	return wails.Run(&options.App{
		Title:     "Character Sheet",
		Width:     service.DefaultWindowWidth,
		Height:    service.DefaultWindowHeight,
		MinWidth:  800,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 15, G: 15, B: 20, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnBeforeClose:    app.BeforeClose,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				HideTitleBar:               false,
				FullSizeContent:            true,
				UseToolbar:                 true,
				HideToolbarSeparator:       true,
			},
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			About: &mac.AboutInfo{
				Title:   "Character Sheet",
				Message: "Grid-based RPG character sheet editor",
			},
		},
	})
}
