package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "demo":
		if err := demo(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "replay":
		if err := replay(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "export":
		if err := exportCmd(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "prove":
		if err := prove(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`collectible - fixed-price NFT ledger with a royalty marketplace

Usage:
  collectible <command> [options]

Commands:
  demo       Deploy a contract and run a scripted sale, trade, and withdrawal
  replay     Rebuild contract state from a journal and print a summary
  export     Dump a journal stream as JSONL or CSV
  prove      Generate a settlement proof for a royalty split
  help       Show this help

Configuration is read from COLLECTIBLE_* environment variables; run
'collectible demo -h' for the journal options.`)
}
