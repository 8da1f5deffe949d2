// Command lio2px4 relays LIO-SAM odometry to PX4 through MAVROS.
//
// ROS arguments (remappings, _param:=value and __name:=value) may follow the
// flags, as rosrun and roslaunch pass them:
//
//	lio2px4 --policy axis-remap odometry/imu:=/lio_sam/mapping/odometry __ns:=/uav1
package main

func main() {
	Execute()
}
