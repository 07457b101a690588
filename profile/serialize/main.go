// Profiling:
// go build ./profile/serialize
// go tool pprof -http=":8000" -nodefraction=0.001 ./serialize mem.pprof

package main

import (
	"github.com/pkg/profile"

	vs "github.com/voidscript/voidscript"
	"github.com/voidscript/voidscript/scene"
)

type transform struct {
	X, Y, Z float64
}

type velocity struct {
	DX, DY float64
}

func main() {
	rounds := 100
	entities := 5000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, entities)
	p.Stop()
}

func run(rounds, numEntities int) {
	reg := vs.NewRegistry()
	vs.MustRegister[transform](reg, "Transform")
	vs.MustRegister[velocity](reg, "Velocity")

	w := vs.NewWorld(reg, numEntities)
	root := w.CreateEntity()
	vs.AddComponent[transform](w, root)
	for i := 1; i < numEntities; i++ {
		e := w.CreateEntity()
		vs.AddComponent[transform](w, e)
		if i%2 == 0 {
			vs.AddComponent[velocity](w, e)
		}
		vs.SetParent(w, e, root)
	}

	ser := scene.NewSerializer(reg, nil, nil)
	for r := 0; r < rounds; r++ {
		doc, err := ser.Serialize(w, []vs.Entity{root})
		if err != nil {
			panic(err)
		}
		if _, err := scene.EncodeDocument(doc, scene.FormatJSON); err != nil {
			panic(err)
		}
	}
}
