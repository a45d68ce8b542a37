package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/bakehouse/internal/seed"
	"github.com/dmitrijs2005/bakehouse/internal/server"
	"github.com/dmitrijs2005/bakehouse/internal/server/config"
)

// newBootstrapper is a test seam for building the app.
var newBootstrapper = func(ctx context.Context) (seed.Bootstrapper, io.Closer, error) {
	app, err := server.NewApp(ctx, config.LoadConfig())
	if err != nil {
		return nil, nil, err
	}
	return app.AuthService(), app, nil
}

// run seeds the first superadmin and releases the app before returning.
func run(ctx context.Context, in io.Reader, out io.Writer) error {
	b, closer, err := newBootstrapper(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	return seed.Run(ctx, b, bufio.NewReader(in), out)
}

func main() {

	if err := run(context.Background(), os.Stdin, os.Stdout); err != nil {
		log.Fatalf("seed failed: %v", err)
	}

}
