// Package affinity enumerates the host's CPU topology and hands out
// exclusive logical-processor reservations to worker threads, pinning each
// one to its slot for the lifetime of the lease. The first hyperthread of
// every core is handed out before any second one, so workers land on
// distinct physical cores until those run out.
package affinity

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Topology is a package -> core -> ordered logical-processor mapping.
// Built once from the OS and never mutated afterward.
type Topology struct {
	Packages []Package
}

// Package groups the cores that share a physical socket.
type Package struct {
	ID    int
	Cores []Core
}

// Core is one physical core's ordered list of logical processors
// (hyperthread siblings), in encounter order.
type Core struct {
	ID   int
	CPUs []int
}

// DetectTopology builds a Topology from the running kernel's view of CPUs.
// On Linux it parses /proc/cpuinfo; elsewhere it synthesizes a single
// package containing one logical processor per reported core.
func DetectTopology() Topology {
	if runtime.GOOS == "linux" {
		if t, ok := detectLinuxTopology(); ok {
			return t
		}
	}
	return fallbackTopology()
}

func fallbackTopology() Topology {
	n := runtime.NumCPU()
	cores := make([]Core, n)
	for i := 0; i < n; i++ {
		cores[i] = Core{ID: i, CPUs: []int{i}}
	}
	return Topology{Packages: []Package{{ID: 0, Cores: cores}}}
}

// detectLinuxTopology parses /proc/cpuinfo, grouping logical processors by
// (physical id, core id) and preserving encounter order within a core.
func detectLinuxTopology() (Topology, bool) {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return Topology{}, false
	}
	defer f.Close()

	type key struct{ pkg, core int }
	order := []int{}          // physical ids, in first-seen order
	coreOrder := map[int][]int{} // physical id -> core ids, first-seen order
	cpus := map[key][]int{}

	var curProcessor, curCoreID, curPhysID int
	haveProcessor, haveCoreID, havePhysID := false, false, false

	flush := func() {
		if !haveProcessor {
			return
		}
		pid := 0
		if havePhysID {
			pid = curPhysID
		}
		cid := 0
		if haveCoreID {
			cid = curCoreID
		}
		k := key{pkg: pid, core: cid}
		if _, seen := cpus[k]; !seen {
			if _, ok := coreOrder[pid]; !ok {
				order = append(order, pid)
			}
			coreOrder[pid] = append(coreOrder[pid], cid)
		}
		cpus[k] = append(cpus[k], curProcessor)
		haveProcessor, haveCoreID, havePhysID = false, false, false
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch name {
		case "processor":
			if v, err := strconv.Atoi(val); err == nil {
				curProcessor = v
				haveProcessor = true
			}
		case "core id":
			if v, err := strconv.Atoi(val); err == nil {
				curCoreID = v
				haveCoreID = true
			}
		case "physical id":
			if v, err := strconv.Atoi(val); err == nil {
				curPhysID = v
				havePhysID = true
			}
		}
	}
	flush()

	if len(order) == 0 {
		return Topology{}, false
	}

	var pkgs []Package
	for _, pid := range order {
		seenCore := map[int]bool{}
		var cores []Core
		for _, cid := range coreOrder[pid] {
			if seenCore[cid] {
				continue
			}
			seenCore[cid] = true
			cores = append(cores, Core{ID: cid, CPUs: cpus[key{pkg: pid, core: cid}]})
		}
		pkgs = append(pkgs, Package{ID: pid, Cores: cores})
	}
	return Topology{Packages: pkgs}, true
}
