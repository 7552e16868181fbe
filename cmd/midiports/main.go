package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-pianoroll/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "test":
		err = testNote(arg(2))
	case "poll":
		pollDevices()
	case "dump":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = dumpFile(os.Args[2])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI port tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list         - List MIDI output ports")
	fmt.Println("  test [port]  - Play middle C on a port")
	fmt.Println("  poll         - Watch for device changes")
	fmt.Println("  dump <file>  - Print the events of a .mid file")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Printf("(waiting up to %s...)\n", midi.ScanTimeout)

	names, err := midi.OutPortNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("  none")
	}
	for i, name := range names {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func testNote(name string) error {
	out, err := midi.OpenOut(name)
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Printf("Playing C4 on %s\n", out.Name())
	if err := out.Send(midi.ProgramChangeEvent(0)); err != nil {
		return err
	}
	if err := out.Send(midi.NoteOnEvent(60, midi.FullVelocity)); err != nil {
		return err
	}
	time.Sleep(time.Second)
	return out.Send(midi.NoteOffEvent(60, midi.FullVelocity))
}

func pollDevices() {
	fmt.Println("Watching for output ports. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dm := midi.NewDeviceManager()
	go dm.Run(ctx)
	for ev := range dm.Events() {
		fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), ev.Type, ev.Name)
	}
}

func dumpFile(path string) error {
	s, err := smf.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: format %d, %d track(s), %s\n", path, s.Format(), len(s.Tracks), s.TimeFormat)
	for i, track := range s.Tracks {
		fmt.Printf("=== Track %d ===\n", i)
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			fmt.Printf("  %8d  %s\n", tick, ev.Message)
		}
	}
	return nil
}
