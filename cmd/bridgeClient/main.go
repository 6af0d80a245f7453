package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/config"
)

func main() {
	app := &cli.App{
		Name:  "bridge-client",
		Usage: "Tezos smart rollup bridge client for deposits and signed transfers",
		Description: `A client for the ticket bridge between Tezos and a smart rollup.

This client can:
- Deploy and initialise the bridge contract and deposit FA1.2 or FA2 tokens into the rollup
- Build, sign and submit transfer messages to the rollup inbox
- Hash, decode and verify transfer messages the way the rollup does
- Remember submitted nonces in a local journal to suggest the next one`,
		Version: "1.0.0",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "deploy",
				Usage: "Originate the bridge contract",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "script",
						Usage:    "Path of the compiled bridge contract",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "alias",
						Usage: "Alias the octez client stores the contract under",
						Value: "bridge",
					},
					&cli.StringFlag{
						Name:     "rollup",
						Usage:    "Smart rollup address (sr1...) stored at origination",
						Required: true,
					},
				},
				Action: deployCommand,
			},
			{
				Name:  "initialise",
				Usage: "Point a deployed bridge at its rollup",
				Flags: []cli.Flag{
					bridgeFlag(),
					&cli.StringFlag{
						Name:     "rollup",
						Usage:    "Smart rollup address (sr1...)",
						Required: true,
					},
				},
				Action: initialiseCommand,
			},
			{
				Name:  "deposit",
				Usage: "Deposit tokens into the rollup through the bridge",
				Subcommands: []*cli.Command{
					{
						Name:   "fa12",
						Usage:  "Approve the bridge and deposit an FA1.2 token",
						Flags:  append(tokenFlags(false), bridgeFlag(), amountFlag()),
						Action: depositCommand(tokenFA12),
					},
					{
						Name:   "fa2",
						Usage:  "Add the bridge as operator and deposit an FA2 token",
						Flags:  append(tokenFlags(true), bridgeFlag(), amountFlag()),
						Action: depositCommand(tokenFA2),
					},
				},
			},
			{
				Name:  "transfer",
				Usage: "Sign a transfer and submit it to the rollup inbox",
				Subcommands: []*cli.Command{
					{
						Name:   "fa12",
						Usage:  "Transfer an FA1.2 token inside the rollup",
						Flags:  append(tokenFlags(false), transferFlags()...),
						Action: transferCommand(tokenFA12),
					},
					{
						Name:   "fa2",
						Usage:  "Transfer an FA2 token inside the rollup",
						Flags:  append(tokenFlags(true), transferFlags()...),
						Action: transferCommand(tokenFA2),
					},
				},
			},
			{
				Name:  "hash",
				Usage: "Print the hash a transfer signature covers",
				Flags: append(tokenFlags(false),
					&cli.StringFlag{
						Name:  "token-id",
						Usage: "FA2 token id; when set the token is treated as FA2",
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Destination tz1 address inside the rollup",
						Required: true,
					},
					amountFlag(),
					&cli.Uint64Flag{
						Name:     "nonce",
						Usage:    "Transfer nonce",
						Required: true,
					},
				),
				Action: hashCommand,
			},
			{
				Name:  "decode",
				Usage: "Decode a serialized transfer message and verify its signature",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "payload",
						Usage:    "Hex payload as submitted to the inbox",
						Required: true,
					},
				},
				Action: decodeCommand,
			},
			{
				Name:  "next-nonce",
				Usage: "Suggest the next nonce from the local journal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "address",
						Usage: "Sender tz1 address (default: the signing account)",
					},
				},
				Action: nextNonceCommand,
			},
			{
				Name:  "history",
				Usage: "List transfers recorded in the local journal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "address",
						Usage: "Sender tz1 address (default: the signing account)",
					},
				},
				Action: historyCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "octez-client",
			Usage:   "Path of the octez-client binary",
			Value:   "octez-client",
			EnvVars: []string{config.EnvBridgeOctezClient},
		},
		&cli.StringFlag{
			Name:    "network",
			Usage:   "Network name: " + config.GetSupportedNetworksString(),
			Value:   string(config.NetworkName_Ghostnet),
			EnvVars: []string{config.EnvBridgeNetwork},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "Node RPC URL (default: the network's public endpoint)",
			EnvVars: []string{config.EnvBridgeRPCURL},
		},
		&cli.StringFlag{
			Name:    "base-dir",
			Usage:   "octez-client base directory",
			EnvVars: []string{config.EnvBridgeBaseDir},
		},
		&cli.StringFlag{
			Name:    "source",
			Usage:   "Alias or address paying for base chain operations",
			EnvVars: []string{config.EnvBridgeSource},
		},
		&cli.StringFlag{
			Name:  "owner",
			Usage: "tz1 address of --source, required for FA2 deposits",
		},
		&cli.StringFlag{
			Name:    "burn-cap",
			Usage:   "Maximum storage fee in tez an operation may burn",
			Value:   "1",
			EnvVars: []string{config.EnvBridgeBurnCap},
		},
		&cli.StringFlag{
			Name:    "private-key",
			Usage:   "edsk key signing transfers",
			EnvVars: []string{config.EnvBridgePrivateKey},
		},
		&cli.StringFlag{
			Name:    "remote-signer-url",
			Usage:   "octez-signer URL signing transfers instead of --private-key",
			EnvVars: []string{config.EnvBridgeRemoteSignerURL},
		},
		&cli.StringFlag{
			Name:    "remote-signer-address",
			Usage:   "tz1 address of the remote signer key",
			EnvVars: []string{config.EnvBridgeRemoteSignerPKH},
		},
		&cli.StringFlag{
			Name:  "remote-signer-ca-cert",
			Usage: "CA certificate for the remote signer",
		},
		&cli.StringFlag{
			Name:  "remote-signer-cert",
			Usage: "Client certificate for the remote signer",
		},
		&cli.StringFlag{
			Name:  "remote-signer-key",
			Usage: "Client key for the remote signer",
		},
		&cli.Float64Flag{
			Name:  "remote-signer-rps",
			Usage: "Maximum signing requests per second sent to the remote signer (0: unlimited)",
		},
		&cli.UintFlag{
			Name:    "message-prefix",
			Usage:   "Inbox discriminator byte of transfer messages (default: the network's)",
			EnvVars: []string{config.EnvBridgeMessagePrefix},
		},
		&cli.StringFlag{
			Name:    "journal-type",
			Usage:   "Submission journal: memory, badger or redis",
			Value:   string(config.JournalType_Memory),
			EnvVars: []string{config.EnvBridgeJournalType},
		},
		&cli.StringFlag{
			Name:    "journal-path",
			Usage:   "Directory of the badger journal",
			EnvVars: []string{config.EnvBridgeJournalPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Address of the redis journal",
			EnvVars: []string{config.EnvBridgeRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Password of the redis journal",
			EnvVars: []string{config.EnvBridgeRedisPassword},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			EnvVars: []string{config.EnvBridgeDebug},
		},
	}
}

func bridgeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "bridge",
		Usage:    "Bridge contract address or alias",
		Required: true,
	}
}

func amountFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "amount",
		Usage:    "Token amount as a base-10 integer",
		Required: true,
	}
}

func tokenFlags(fa2 bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "token",
			Usage:    "Token contract address (KT1...)",
			Required: true,
		},
	}
	if fa2 {
		flags = append(flags, &cli.StringFlag{
			Name:     "token-id",
			Usage:    "FA2 token id",
			Required: true,
		})
	}
	return flags
}

func transferFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "to",
			Usage:    "Destination tz1 address inside the rollup",
			Required: true,
		},
		amountFlag(),
		&cli.Uint64Flag{
			Name:  "nonce",
			Usage: "Transfer nonce (required unless the journal is badger or redis)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the signed message without submitting it",
		},
		&cli.BoolFlag{
			Name:  "verify-packing",
			Usage: "Cross-check the token packing with the node",
		},
	}
}
