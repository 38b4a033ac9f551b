// Command vdb is a small remote debugger for a running emulator.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/meadori/nescore/cpu"
	"github.com/meadori/nescore/server"
)

var errorf = color.New(color.FgRed).PrintfFunc()

func main() {
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", server.DefaultPort), "emulator address")
	flag.Parse()

	fmt.Println("VDB - nescore debugger")
	fmt.Printf("Connecting to emulator on %s...\n", *addr)

	client, err := server.Dial(*addr)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer client.Close()
	fmt.Println("Connected. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(vdb) ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		if quit := run(client, parts); quit {
			return
		}
	}
}

func ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// run executes one command line and reports whether to exit.
func run(client *server.Client, parts []string) bool {
	c, cancel := ctx()
	defer cancel()

	cmd, count := parts[0], 0
	if i := strings.Index(cmd, "/"); i >= 0 {
		count, _ = strconv.Atoi(cmd[i+1:])
		cmd = cmd[:i]
	}

	switch cmd {
	case "help", "h":
		fmt.Println("Commands:")
		fmt.Println("  run, c         - Resume execution")
		fmt.Println("  pause, p       - Pause execution")
		fmt.Println("  step, s        - Step one instruction")
		fmt.Println("  regs, i r      - Print CPU registers")
		fmt.Println("  x/N <addr>     - Examine memory (e.g. x 0000 or x/16 0000)")
		fmt.Println("  dis/N [addr]   - Disassemble (default at PC)")
		fmt.Println("  reset          - Press the reset button")
		fmt.Println("  save <file>    - Write a save state")
		fmt.Println("  load <file>    - Restore a save state")
		fmt.Println("  quit, q        - Exit debugger")
	case "quit", "q", "exit":
		return true
	case "pause", "p":
		if report(client.Pause(c)) {
			fmt.Println("Emulator paused.")
			printRegs(c, client)
		}
	case "run", "c", "continue":
		if report(client.Resume(c)) {
			fmt.Println("Emulator running...")
		}
	case "step", "s":
		if report(client.Step(c)) {
			printRegs(c, client)
		}
	case "regs", "i":
		if cmd == "regs" || len(parts) > 1 && parts[1] == "r" {
			printRegs(c, client)
		} else {
			fmt.Println("Unknown command. Did you mean 'i r'?")
		}
	case "reset":
		if report(client.Reset(c)) {
			printRegs(c, client)
		}
	case "x":
		if len(parts) < 2 {
			fmt.Println("Usage: x <addr> or x/<count> <addr>")
			break
		}
		addr, ok := parseAddr(parts[1])
		if !ok {
			break
		}
		if count <= 0 {
			count = 1
		}
		data, err := client.ReadMemoryBlock(c, addr, count)
		if report(err) {
			printHexDump(addr, data)
		}
	case "dis":
		var pc uint16
		if len(parts) > 1 {
			var ok bool
			if pc, ok = parseAddr(parts[1]); !ok {
				break
			}
		} else {
			regs, err := client.CPUState(c)
			if !report(err) {
				break
			}
			pc = regs.PC
		}
		if count <= 0 {
			count = 8
		}
		data, err := client.ReadMemoryBlock(c, pc, count*3)
		if report(err) {
			printDisassembly(pc, data, count)
		}
	case "save":
		if len(parts) < 2 {
			fmt.Println("Usage: save <file>")
			break
		}
		data, err := client.SaveState(c)
		if report(err) && report(os.WriteFile(parts[1], data, 0o644)) {
			fmt.Printf("Saved %d bytes to %s\n", len(data), parts[1])
		}
	case "load":
		if len(parts) < 2 {
			fmt.Println("Usage: load <file>")
			break
		}
		data, err := os.ReadFile(parts[1])
		if report(err) && report(client.LoadState(c, data)) {
			printRegs(c, client)
		}
	default:
		fmt.Printf("Unknown command: %s\n", parts[0])
	}
	return false
}

func report(err error) bool {
	if err != nil {
		errorf("Error: %v\n", err)
		return false
	}
	return true
}

func parseAddr(s string) (uint16, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		fmt.Printf("Invalid address: %s\n", s)
		return 0, false
	}
	return uint16(v), true
}

func printRegs(c context.Context, client *server.Client) {
	r, err := client.CPUState(c)
	if err != nil {
		errorf("Error getting CPU state: %v\n", err)
		return
	}
	fmt.Printf("A: %02X  X: %02X  Y: %02X  SP: %02X  PC: %04X  P: %08b  CYC: %d\n",
		r.A, r.X, r.Y, r.SP, r.PC, r.P, r.Cycles)
}

func printHexDump(startAddr uint16, data []byte) {
	for i := 0; i < len(data); i += 16 {
		fmt.Printf("%04X:", startAddr+uint16(i))
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		for j := i; j < end; j++ {
			fmt.Printf(" %02X", data[j])
		}
		fmt.Println()
	}
}

// block serves a fetched memory window to the disassembler.
type block struct {
	base uint16
	data []byte
}

func (b block) Read(addr uint16) byte {
	if i := int(addr - b.base); i < len(b.data) {
		return b.data[i]
	}
	return 0
}

func printDisassembly(pc uint16, data []byte, count int) {
	mem := block{base: pc, data: data}
	for i := 0; i < count && int(pc-mem.base)+3 <= len(data); i++ {
		text, size := cpu.Disassemble(mem, pc)
		fmt.Printf("%04X  %s\n", pc, text)
		pc += uint16(size)
	}
}
