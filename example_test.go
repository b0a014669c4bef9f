package rollcall_test

import (
	"context"
	"fmt"
	"log"

	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/pkg/adapters/memory"
	"github.com/podyouths/rollcall/pkg/domain"
)

func ExampleEngine_Handle() {
	gw := memory.NewGatewayWithRoster(map[string][]string{
		"Bouquet": {"Alice", "Bob"},
		"Kadesh":  {"Eve"},
	}, "Member", domain.MustParseDate("2000-01-01"))

	eng, err := rollcall.New(gw, "secret")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, text := range []string{"/start", "secret"} {
		reply, err := eng.Handle(ctx, domain.Message{ChatID: "42", Text: text})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply.Step, reply.Choices())
	}
	// Output:
	// awaiting_verification []
	// awaiting_cell [Bouquet Kadesh]
}
