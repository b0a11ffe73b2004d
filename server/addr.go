package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrNoInterfaceAddr 找不到可用的本机网卡地址
var ErrNoInterfaceAddr = errors.New("no active non-loopback IPv4 interface")

// localIPv4 可在测试中替换
var localIPv4 = firstInterfaceIPv4

// ResolveBindAddr 组合监听地址：host 为空时取本机活动网卡的 IPv4 地址
func ResolveBindAddr(host string, port int) (string, error) {
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	if host == "" {
		ip, err := localIPv4()
		if err != nil {
			return "", fmt.Errorf("resolve bind address: %w", err)
		}
		host = ip.String()
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// firstInterfaceIPv4 遍历网卡，返回第一个处于 up 状态、非回环的 IPv4 地址
func firstInterfaceIPv4() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			var ip net.IP
			switch v := a.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
				return ip4, nil
			}
		}
	}
	return nil, ErrNoInterfaceAddr
}
