// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/pkg/profile"

	vs "github.com/voidscript/voidscript"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		reg := vs.NewRegistry()
		vs.MustRegister[comp1](reg, "Comp1")
		vs.MustRegister[comp2](reg, "Comp2")
		w := vs.NewWorld(reg, numEntities)
		query := vs.NewFilter2[comp1, comp2](w)

		for it := 0; it < iters; it++ {
			for i := 0; i < numEntities; i++ {
				e := w.CreateEntity()
				vs.AddComponent[comp1](w, e)
				vs.AddComponent[comp2](w, e)
			}
			entities := []vs.Entity{}
			query.Reset()
			for query.Next() {
				entities = append(entities, query.Entity())
				c1, c2 := query.Get()
				c1.V += c2.V
				c1.W += c2.W
			}
			for _, e := range entities {
				w.DestroyEntity(e)
			}
		}
	}
}
