package main

import (
	"fmt"
	"os"

	"github.com/GuardianUI/storycheck/mockwallet/pkg/log"
	"github.com/GuardianUI/storycheck/mockwallet/pkg/sign"
)

// runAddressCli prints the account pages will see. Without a configured key
// it generates a burn wallet and prints its key too, so it can be reused.
func runAddressCli(logger log.Logger) {
	logger = logger.Named("address")

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "err", err)
	}

	var signer *sign.EthereumSigner
	if config.PrivateKey == "" {
		signer, err = sign.NewRandomEthereumSigner()
		if err == nil {
			fmt.Fprintf(os.Stdout, "private key: %s\n", signer.PrivateKeyHex())
		}
	} else {
		signer, err = sign.NewEthereumSigner(config.PrivateKey)
	}
	if err != nil {
		logger.Fatal("failed to initialise signer", "err", err)
	}
	fmt.Fprintf(os.Stdout, "address: %s\n", signer.Address().Hex())
}
