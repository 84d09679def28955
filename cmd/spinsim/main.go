package main

import (
	"flag"
	"fmt"
	mrand "math/rand"
	"os"

	"lucky-spin/internal/ledger"
	"lucky-spin/internal/wheel"
)

// Offline spin simulator: runs a seeded session against the reference
// wheel and checks the ledger conservation law along the way.
func main() {
	spins := flag.Int("spins", 100, "maximum number of spins to run")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	bounds := ledger.ReferenceBounds()
	l := ledger.New(bounds)
	segments := wheel.ReferenceSegments()
	rng := mrand.New(mrand.NewSource(*seed))

	played := 0
	won := 0
	for i := 0; i < *spins && l.CanSpin(); i++ {
		raw := 4*wheel.FullCircle + rng.Float64()*wheel.FullCircle
		result, err := wheel.Resolve(segments, raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, "resolve:", err)
			os.Exit(1)
		}
		if err := l.ApplySpin(result); err != nil {
			break
		}
		played++
		won += result.Credited
	}

	snap := l.Snapshot()
	sum := 0
	for _, e := range snap.History {
		sum += e.Amount
	}

	fmt.Println("spins played =", played)
	fmt.Println("total won    =", won)
	fmt.Println("balance      =", snap.Balance)
	fmt.Println("winnings     =", snap.LifetimeWinnings)

	if snap.Balance != sum-played*bounds.SpinCost {
		fmt.Fprintln(os.Stderr, "conservation violated: balance", snap.Balance, "entries", sum, "costs", played*bounds.SpinCost)
		os.Exit(1)
	}
	fmt.Println("conservation holds")
}
