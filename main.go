package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-pianoroll/config"
	"go-pianoroll/debug"
	"go-pianoroll/midi"
	"go-pianoroll/sequencer"
	"go-pianoroll/theme"
	"go-pianoroll/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-pianoroll/config.yaml)")
	port := flag.String("port", "", "MIDI output port, matched by name")
	debugLog := flag.Bool("debug", false, "write a debug log")
	writeConfig := flag.Bool("write-config", false, "write the effective config and exit")
	flag.Parse()

	if *writeConfig {
		if err := saveConfig(*configPath, *port); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath, *port, *debugLog); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath, port string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if port != "" {
		cfg.Output.Port = port
	}
	return cfg, nil
}

// saveConfig writes defaults merged with the existing file and flags, so a
// first run can start from a complete config.yaml
func saveConfig(configPath, port string) error {
	cfg, err := loadConfig(configPath, port)
	if err != nil {
		return err
	}
	if configPath != "" {
		err = cfg.SaveFile(configPath)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Println("config written")
	return nil
}

func run(configPath, port string, debugLog bool) error {
	cfg, err := loadConfig(configPath, port)
	if err != nil {
		return err
	}

	if debugLog || cfg.Debug.Enabled {
		path := cfg.Debug.Path
		if path == "" {
			path = debug.DefaultPath()
		}
		if err := debug.Enable(path); err != nil {
			fmt.Printf("Warning: debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
	}
	th := theme.New(palette)

	session := sequencer.NewSession(cfg.NewProject())
	session.CreateTrack()

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	m := tui.NewModel(session, deviceMgr, th, openPort, tui.Options{
		ExportDir:    cfg.Export.Dir,
		FileTemplate: cfg.Export.FileName,
		PreferPort:   cfg.Output.Port,
		CenterPitch:  cfg.UI.CenterPitch,
		VisibleRows:  cfg.UI.VisibleRows,
	})

	// Connect now if the port is already there; otherwise the device manager
	// picks it up when it appears.
	if out, err := midi.OpenOut(cfg.Output.Port); err != nil {
		debug.Log("main", "no output yet: %v", err)
	} else {
		m.AttachPort(out)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	session.Close()
	return err
}

func openPort(name string) (tui.Port, error) {
	out, err := midi.OpenOut(name)
	if err != nil {
		return nil, err
	}
	return out, nil
}
