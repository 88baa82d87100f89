// Package adb drives a real Android handset over the Android Debug Bridge.
//
// The host polls the window hierarchy with uiautomator, turns every change into
// a notification and exposes the dumped tree as ports.Node values. Input is
// injected with "input tap" and "input text", and the menu session is opened
// with a CALL intent.
package adb
