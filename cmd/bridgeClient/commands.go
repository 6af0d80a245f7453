package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/tezos-bridge/rollup-bridge-go/pkg/config"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/contractCaller/caller"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/michelson"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/persistence"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/transfer"
	"github.com/tezos-bridge/rollup-bridge-go/pkg/types"
)

// deployCommand handles the deploy subcommand
func deployCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	l, err := createLogger(cfg)
	if err != nil {
		return err
	}
	contractCaller, err := createContractCaller(c, cfg, l)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c, cfg)
	defer cancel()

	fmt.Printf("🚀 Originating bridge on %s\n", cfg.Network)
	res, err := contractCaller.OriginateBridge(ctx, &caller.OriginateBridgeParams{
		Alias:         c.String("alias"),
		Script:        c.String("script"),
		InitialRollup: c.String("rollup"),
	})
	if err != nil {
		return fmt.Errorf("failed to originate bridge: %w", err)
	}

	fmt.Printf("✅ Bridge originated at %s\n", res.Contract)
	fmt.Printf("   Operation: %s\n", res.OperationHash)
	return nil
}

// initialiseCommand handles the initialise subcommand
func initialiseCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	l, err := createLogger(cfg)
	if err != nil {
		return err
	}
	contractCaller, err := createContractCaller(c, cfg, l)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c, cfg)
	defer cancel()

	res, err := contractCaller.InitialiseBridge(ctx, c.String("bridge"), c.String("rollup"))
	if err != nil {
		return fmt.Errorf("failed to initialise bridge: %w", err)
	}
	fmt.Printf("✅ Bridge %s now targets rollup %s\n", c.String("bridge"), c.String("rollup"))
	fmt.Printf("   Operation: %s\n", res.OperationHash)
	return nil
}

// depositCommand returns the action of the deposit subcommand for standard
func depositCommand(standard types.TokenStandard) cli.ActionFunc {
	return func(c *cli.Context) error {
		token, err := parseToken(standard, c.String("token"), c.String("token-id"))
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		l, err := createLogger(cfg)
		if err != nil {
			return err
		}
		contractCaller, err := createContractCaller(c, cfg, l)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(c, cfg)
		defer cancel()

		fmt.Printf("📥 Depositing %s of %s\n", c.String("amount"), token)
		res, err := contractCaller.Deposit(ctx, c.String("bridge"), token, c.String("amount"))
		if err != nil {
			return fmt.Errorf("failed to deposit: %w", err)
		}
		fmt.Printf("✅ Deposit injected: %s\n", res.OperationHash)
		return nil
	}
}

// transferCommand returns the action of the transfer subcommand for standard
func transferCommand(standard types.TokenStandard) cli.ActionFunc {
	return func(c *cli.Context) error {
		token, err := parseToken(standard, c.String("token"), c.String("token-id"))
		if err != nil {
			return err
		}
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		l, err := createLogger(cfg)
		if err != nil {
			return err
		}

		dryRun := c.Bool("dry-run")
		verifyPacking := c.Bool("verify-packing")

		var contractCaller *caller.ContractCaller
		if !dryRun || verifyPacking {
			if contractCaller, err = createContractCaller(c, cfg, l); err != nil {
				return err
			}
		}

		journal, err := createJournal(cfg, l)
		if err != nil {
			return err
		}
		defer func() { _ = journal.Close() }()

		client, err := createTransferClient(cfg, contractCaller, journal, verifyPacking, l)
		if err != nil {
			return err
		}

		req := &transfer.Request{
			Token:       token,
			Destination: c.String("to"),
			Amount:      c.String("amount"),
		}
		if c.IsSet("nonce") {
			nonce := c.Uint64("nonce")
			req.Nonce = &nonce
		}

		ctx, cancel := commandContext(c, cfg)
		defer cancel()

		if dryRun {
			prepared, err := client.Prepare(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to prepare transfer: %w", err)
			}
			printPrepared(prepared)
			return nil
		}

		res, err := client.Send(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to send transfer: %w", err)
		}
		printPrepared(res.PreparedMessage)
		fmt.Printf("✅ Transfer submitted: %s\n", res.OperationHash)
		return nil
	}
}

func printPrepared(p *transfer.PreparedMessage) {
	fmt.Printf("🔏 Signed transfer from %s\n", p.Sender)
	fmt.Printf("   Nonce:   %d\n", p.Nonce)
	fmt.Printf("   Hash:    %s\n", p.Hash)
	fmt.Printf("   Message: %s\n", p.PayloadHex)
}

// hashCommand handles the hash subcommand
func hashCommand(c *cli.Context) error {
	standard := tokenFA12
	if c.IsSet("token-id") {
		standard = tokenFA2
	}
	token, err := parseToken(standard, c.String("token"), c.String("token-id"))
	if err != nil {
		return err
	}
	content, err := transfer.BuildContent(token, c.String("to"), c.String("amount"))
	if err != nil {
		return err
	}

	nonce := c.Uint64("nonce")
	fmt.Printf("Input: %s\n", transfer.HashInput(nonce, content))
	fmt.Printf("Hash:  %s\n", transfer.HashToSignHex(nonce, content))
	return nil
}

// decodeCommand handles the decode subcommand. The signature is checked but a bad one is
// reported rather than treated as a decoding failure.
func decodeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	msg, err := transfer.ParseMessage(c.String("payload"), cfg.MessagePrefix)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	content := msg.Inner.Content
	fmt.Printf("Public key:  %s\n", msg.PublicKey.Ed25519)
	if sender, err := transfer.Sender(msg); err == nil {
		fmt.Printf("Sender:      %s\n", sender)
	}
	fmt.Printf("Nonce:       %d\n", msg.Inner.Nonce)
	if token, err := michelson.UnpackToken(content.Token); err == nil {
		fmt.Printf("Token:       %s\n", token)
	} else {
		fmt.Printf("Token:       0x%s (%v)\n", content.Token.Hex(), err)
	}
	fmt.Printf("Destination: %s\n", content.Destination.Address())
	fmt.Printf("Amount:      %s\n", content.Amount)
	fmt.Printf("Hash:        %s\n", transfer.HashToSignHex(msg.Inner.Nonce, content))

	if err := transfer.Verify(msg); err != nil {
		fmt.Printf("❌ Signature: %v\n", err)
		return nil
	}
	fmt.Printf("✅ Signature valid\n")
	return nil
}

// senderAddress is --address, or the signing account when it is not given
func senderAddress(c *cli.Context, cfg *config.BridgeClientConfig, l *zap.Logger) (string, error) {
	if address := c.String("address"); address != "" {
		if _, err := transfer.ValidateDestination(address); err != nil {
			return "", err
		}
		return address, nil
	}
	signer, err := createMessageSigner(cfg, l)
	if err != nil {
		return "", err
	}
	address, err := signer.Address(c.Context)
	if err != nil {
		return "", fmt.Errorf("failed to get signer address: %w", err)
	}
	return address, nil
}

// nextNonceCommand handles the next-nonce subcommand
func nextNonceCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if !cfg.Journal.Persistent() {
		return fmt.Errorf("the %s journal forgets submissions on exit, configure a badger or redis journal", cfg.Journal.Type)
	}
	l, err := createLogger(cfg)
	if err != nil {
		return err
	}
	journal, err := createJournal(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	address, err := senderAddress(c, cfg, l)
	if err != nil {
		return err
	}

	nonce, err := persistence.NextNonce(journal, address)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	fmt.Printf("%d\n", nonce)
	return nil
}

// historyCommand handles the history subcommand
func historyCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	l, err := createLogger(cfg)
	if err != nil {
		return err
	}
	journal, err := createJournal(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	address, err := senderAddress(c, cfg, l)
	if err != nil {
		return err
	}

	records, err := journal.ListSubmissions(address)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("No transfers recorded for %s\n", address)
		return nil
	}
	for _, r := range records {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", r.Nonce, r.Destination, r.Amount, r.OperationHash, r.Hash)
	}
	return nil
}
