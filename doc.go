// Package vfptrap instruments ARM A32 executable memory, replacing
// VFP floating-point instructions with branches into generated
// trampolines that call a software emulation routine.
//
// It is meant to run once, synchronously, before a hosted program's
// entry point: it enumerates the process's own mappings, narrows each
// to its executable sections, classifies candidate instruction words,
// and patches the ones it recognises. See Engine.Run.
package vfptrap
